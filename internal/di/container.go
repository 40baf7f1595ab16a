package di

import (
	"fmt"

	"manus-dashboard/internal/adapter/httpapi"
	"manus-dashboard/internal/application/port/input"
	"manus-dashboard/internal/application/port/output"
	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/infrastructure/config"
	"manus-dashboard/internal/infrastructure/logger"
	"manus-dashboard/internal/infrastructure/manus"
	"manus-dashboard/internal/infrastructure/userinteraction"
	"manus-dashboard/internal/usecase/conversation"
	"manus-dashboard/internal/usecase/taskrunner"
	"manus-dashboard/internal/usecase/uploader"
)

type Container struct {
	Config   *config.Config
	Logger   output.LoggerPort
	Manus    output.ManusPort
	Console  *userinteraction.Console
	Session  *service.Session
	Runner   input.TaskRunner
	Uploader input.FileUploader
	Chat     input.Conversation
}

type Options struct {
	// LogName names the log file. Empty logs to stderr.
	LogName string
	// Progress receives task and upload progress. Nil uses the console.
	Progress output.ProgressPort
}

func NewContainer(cfg *config.Config, opts Options) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		log *logger.LoggerAdapter
		err error
	)
	if opts.LogName == "" {
		log, err = logger.NewStderrLogger(cfg.LogLevel)
	} else {
		log, err = logger.NewLoggerAdapter(opts.LogName, cfg.LogLevel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	manusCfg := manus.DefaultConfig(cfg.APIKey)
	manusCfg.BaseURL = cfg.BaseURL
	manusCfg.Logger = log
	api := manus.NewAdapter(manusCfg)

	console := userinteraction.NewConsole()
	progress := opts.Progress
	if progress == nil {
		progress = console
	}

	runner := taskrunner.New(api, progress, log, taskrunner.Config{
		PollInterval: cfg.PollInterval(),
		PollDeadline: cfg.PollDeadline(),
	})
	up := uploader.New(api, progress, log, uploader.Config{
		MaxFileSize:    cfg.MaxFileSizeBytes(),
		SupportedTypes: cfg.SupportedFileTypes,
		ImageMaxWidth:  cfg.ImageMaxWidth,
	})
	chat := conversation.New(runner, log, input.SendRequest{
		AgentProfile:   cfg.AgentProfile,
		TimeoutSeconds: cfg.TimeoutSeconds,
	})

	sess := service.NewSession()
	log.Info("Session started", "session", sess.ID(), "baseUrl", cfg.BaseURL, "profile", cfg.AgentProfile)

	return &Container{
		Config:   cfg,
		Logger:   log,
		Manus:    api,
		Console:  console,
		Session:  sess,
		Runner:   runner,
		Uploader: up,
		Chat:     chat,
	}, nil
}

// HTTPServer builds the JSON API over the container's session.
func (c *Container) HTTPServer(requestLogging bool) *httpapi.Server {
	return httpapi.NewServer(c.Manus, c.Chat, c.Uploader, c.Session, c.Logger, httpapi.Config{
		Addr:           c.Config.HTTPAddr,
		TaskLimit:      c.Config.TaskLimit,
		FileExpiry:     c.Config.FileExpiry(),
		MaxUploadBytes: int64(c.Config.MaxFileSizeBytes()) * 10,
		RequestLogging: requestLogging,
	})
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Info("Session closed", "summary", c.Session.String())
		c.Logger.Close()
	}
}
