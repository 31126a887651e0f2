package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"job-applier-go/internal/app"
)

func main() {
	if err := app.Run(os.Args[1:]); err != nil {
		logrus.Fatalf("application error: %v", err)
	}
}
