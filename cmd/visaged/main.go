package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/tacusci/logging/v2"
	"github.com/takama/daemon"
	"github.com/tauraamui/visaged/pkg/config"
	"github.com/tauraamui/visaged/pkg/configdef"
	"github.com/tauraamui/visaged/pkg/log"
	"github.com/tauraamui/visaged/pkg/video/videobackend"
	"github.com/tauraamui/visaged/pkg/visaged"
	"github.com/tauraamui/visaged/pkg/visaged/process"
)

const (
	name        = "visaged"
	description = "Visage service daemon which detects faces in a live camera feed"
)

type Service struct {
	daemon.Daemon
}

// Setup writes the default config file, leaving an existing one alone.
func (service *Service) Setup() (string, error) {
	log.Info("Setting up visaged service...")

	err := config.DefaultCreator().Create()
	if err != nil {
		if !errors.Is(err, configdef.ErrConfigAlreadyExists) {
			return "", err
		}
		log.Error(err.Error())
	}

	return "Setup successful...", nil
}

func (service *Service) Manage() (string, error) {
	usage := "Usage: visaged setup | install | remove | start | stop | status"

	if len(os.Args) > 1 {
		command := os.Args[1]
		switch command {
		case "setup":
			return service.Setup()
		case "install":
			return service.Install()
		case "remove":
			return service.Remove()
		case "start":
			return service.Start()
		case "stop":
			return service.Stop()
		case "status":
			return service.Status()
		default:
			return usage, nil
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	log.Info("Starting visage daemon...")

	server := visaged.NewServer(
		config.DefaultResolver(), videobackend.Resolve(os.Getenv("VISAGED_VIDEO_BACKEND")),
	)
	if err := server.LoadConfiguration(); err != nil {
		log.Fatal("unable to load configuration: %s", err)
	}
	if err := server.LoadDetector(); err != nil {
		log.Fatal("unable to load cascade model: %s", err)
	}
	if os.Getenv("VISAGED_HEADLESS") == "" {
		server.AttachWindow()
	}

	events := server.Events()
	ctx, cancelStartup := context.WithCancel(context.Background())
	startupErrs := make(chan error, 1)
	go startupServer(ctx, server, startupErrs)

	running := true
	for running {
		select {
		case killSignal := <-interrupt:
			fmt.Print("\r")
			log.Error("Received signal: %s", killSignal)
			running = false
		case err := <-startupErrs:
			log.Error("unable to start capture: %s", err)
			running = false
		case msg := <-events.Ch:
			if evt, ok := msg.(process.Event); ok && evt == process.LOOP_STOPPED_EVT {
				log.Info("Capture loop stopped...")
				running = false
			}
		}
	}

	cancelStartup()
	log.Info("Shutting down server...")
	<-server.Shutdown()

	return "Shutdown successful... BYE! 👋", nil
}

func startupServer(ctx context.Context, server visaged.Server, errs chan error) {
	if err := server.ConnectWithCancel(ctx); err != nil {
		errs <- err
		return
	}
	server.SetupProcesses()
	server.RunProcesses()
}

func init() {
	logging.CallbackLabelLevel = 5
	logging.ColorLogLevelLabelOnly = true
	loggingLevel := os.Getenv("VISAGED_LOGGING_LEVEL")

	switch strings.ToLower(loggingLevel) {
	case "info":
		logging.CurrentLoggingLevel = logging.InfoLevel
	case "warn":
		logging.CurrentLoggingLevel = logging.WarnLevel
	case "debug":
		logging.CurrentLoggingLevel = logging.DebugLevel
		logging.CallbackLabel = true
	default:
		logging.CurrentLoggingLevel = logging.WarnLevel
	}
}

func main() {
	daemonType := daemon.SystemDaemon
	if runtime.GOOS == "darwin" {
		daemonType = daemon.UserAgent
	}

	srv, err := daemon.New(name, description, daemonType)
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	service := &Service{srv}
	status, err := service.Manage()
	if err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}

	logging.Info(status) //nolint
}
