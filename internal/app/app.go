package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"job-applier-go/internal/auditlog"
	"job-applier-go/internal/config"
	"job-applier-go/internal/db"
	"job-applier-go/internal/document"
	"job-applier-go/internal/finder"
	"job-applier-go/internal/handler"
	"job-applier-go/internal/llm"
	"job-applier-go/internal/mail"
	"job-applier-go/internal/metrics"
	"job-applier-go/internal/repository"
	"job-applier-go/internal/router"
	"job-applier-go/internal/scheduler"
	"job-applier-go/internal/service"
)

// Options are the command-line options
type Options struct {
	ConfigPath string
	EnvFile    string
	Once       bool
}

// ParseFlags reads the command-line options from args
func ParseFlags(args []string) (Options, error) {
	var opts Options
	flags := pflag.NewFlagSet("job-applier", pflag.ContinueOnError)
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to the YAML settings file (default ./config.yaml)")
	flags.StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the settings")
	flags.BoolVar(&opts.Once, "once", false, "run the application workflow once and exit")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// Run initializes and starts the application
func Run(args []string) error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	opts, err := ParseFlags(args)
	if err != nil {
		return err
	}

	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
	}

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := settings.Config()
	setLogLevel(cfg.Log.Level)

	logrus.Info("Starting Job Applier")

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(dbConn); err != nil {
			logrus.Errorf("Failed to close database: %v", err)
		}
	}()

	repo := repository.New(dbConn)
	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applier, err := NewApplier(ctx, settings, repo, m)
	if err != nil {
		return err
	}

	if opts.Once || (!cfg.Scheduler.Enabled && !cfg.Server.Enabled) {
		report, err := applier.Run(ctx)
		if err != nil {
			return fmt.Errorf("application run failed: %w", err)
		}
		logrus.WithFields(logrus.Fields{
			"run_id":   report.RunID,
			"duration": report.Duration.String(),
		}).Info("Job Applier finished")
		return nil
	}

	return serve(ctx, settings, repo, applier)
}

// serve runs the scheduler and the admin API until ctx is cancelled
func serve(ctx context.Context, settings *config.Settings, repo *repository.Repository, applier *service.Applier) error {
	cfg := settings.Config()
	sched := scheduler.NewScheduler(ctx, cfg.Scheduler, applier)

	if cfg.Scheduler.Enabled {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	var srv *http.Server
	if cfg.Server.Enabled {
		reload := func() error {
			if err := settings.Reload(); err != nil {
				return err
			}
			applier.SetOptions(service.OptionsFromConfig(settings.Config()))
			setLogLevel(settings.Config().Log.Level)
			logrus.Info("Settings reloaded")
			return nil
		}

		h := handler.NewHandlers(repo, sched, prometheus.DefaultGatherer, reload)
		srv = &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router.SetupRouter(h),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		go func() {
			logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.Fatalf("HTTP server error: %v", err)
			}
		}()
	}

	<-ctx.Done()

	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("HTTP server shutdown error: %v", err)
		}
	}

	logrus.Info("Job Applier stopped gracefully")
	return nil
}

// NewApplier builds the application workflow from the settings
func NewApplier(ctx context.Context, settings *config.Settings, repo *repository.Repository, m *metrics.Metrics) (*service.Applier, error) {
	cfg := settings.Config()

	finders, err := finder.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	logrus.WithField("finders", finders.Names()).Info("Job finders registered")

	gen, err := llm.NewClient(cfg.OpenAI)
	if err != nil {
		return nil, fmt.Errorf("failed to create text generator: %w", err)
	}

	profile, err := settings.Get("applicant")
	if err != nil {
		return nil, err
	}

	converter := document.DetectConverter(cfg.Converter)
	coverLetter := document.NewCoverLetter(gen, cfg.OpenAI.CreateApplicantCoverLetter, &document.FileBuilder{
		Template:  cfg.CoverLetter.Template.File,
		Dir:       document.OutputDir(cfg.Log.CoverLetters.File),
		Label:     "Cover_Letter",
		Converter: converter,
	})
	resume := document.NewResume(gen, cfg.OpenAI.CreateApplicantResume, &document.FileBuilder{
		Template:  cfg.Resume.Template.File,
		Dir:       document.OutputDir(cfg.Log.Resumes.File),
		Label:     "Resume",
		Converter: converter,
	}, profile)

	transport, err := newTransport(ctx, cfg.Email)
	if err != nil {
		return nil, err
	}

	var archiver mail.Archiver
	if cfg.Email.IMAP.Enabled {
		archiver = mail.NewIMAPArchiver(cfg.Email.IMAP, cfg.Email.Timeout)
		logrus.WithField("mailbox", cfg.Email.IMAP.Mailbox).Info("Archiving sent applications over IMAP")
	}

	deps := service.Deps{
		Store:       repo,
		Finder:      finders,
		CoverLetter: coverLetter,
		Resume:      resume,
		Composer:    mail.NewComposer(gen, cfg.OpenAI.CreateApplicantEmail),
		Sender:      mail.NewSender(cfg.Email.Sender(), transport, archiver),
		AuditLog:    auditlog.New(cfg.Log),
		Metrics:     m,
	}
	return service.NewApplier(deps, service.OptionsFromConfig(cfg)), nil
}

func newTransport(ctx context.Context, cfg config.EmailConfig) (mail.Transport, error) {
	switch cfg.Transport {
	case "gmail":
		t, err := mail.NewGmailTransport(ctx, cfg.Gmail)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gmail transport: %w", err)
		}
		logrus.Info("Using Gmail API for sending applications")
		return t, nil
	default:
		logrus.WithField("host", cfg.Host).Info("Using SMTP for sending applications")
		return mail.NewSMTPTransport(cfg), nil
	}
}

func setLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Invalid log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
