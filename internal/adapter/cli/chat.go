package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"manus-dashboard/internal/application/port/input"
	"manus-dashboard/internal/application/service"
	"manus-dashboard/internal/domain/entity"
	"manus-dashboard/internal/infrastructure/userinteraction"

	"github.com/spf13/cobra"
)

var (
	chatProfile string
	chatTimeout int
	chatImage   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat with the agent",
	Long: `Start an interactive chat. Each message runs one agent task and waits
for it to finish; follow-up messages continue the previous task.

Commands: /new /history /load <n|id> /export <format> [path]
          /attach <paths...> /files /clear-files /stats /quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatProfile, "profile", "p", "", "agent profile (quality or speed)")
	chatCmd.Flags().IntVarP(&chatTimeout, "timeout", "t", 0, "task timeout in seconds (60-600)")
	chatCmd.Flags().StringVar(&chatImage, "image", "", "image URL attached to every message")
}

func runChat(cmd *cobra.Command, args []string) error {
	c, err := newContainer("chat", nil)
	if err != nil {
		return err
	}
	defer c.Close()

	r := &repl{
		chat:     c.Chat,
		uploader: c.Uploader,
		sess:     c.Session,
		console:  c.Console,
		request: input.SendRequest{
			ImageURL:       chatImage,
			AgentProfile:   entity.AgentProfile(chatProfile),
			TimeoutSeconds: chatTimeout,
		},
		now: time.Now,
	}
	return r.loop(cmd.Context())
}

type repl struct {
	chat     input.Conversation
	uploader input.FileUploader
	sess     *service.Session
	console  *userinteraction.Console
	request  input.SendRequest
	now      func() time.Time
}

func (r *repl) loop(ctx context.Context) error {
	r.console.ShowInfo("Manus chat. Type /quit to exit.")
	for {
		line, err := r.console.ReadLine("\nyou> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}
		if r.handle(ctx, line) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handle runs one line of input and reports whether the user asked to quit.
func (r *repl) handle(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.send(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/new":
		if saved, ok := r.sess.SnapshotAndReset(); ok {
			r.console.ShowInfo("Saved conversation %s (%d messages). Started a new chat.", saved.ID, len(saved.Messages))
		} else {
			r.console.ShowInfo("Started a new chat.")
		}
	case "/history":
		r.console.ShowHistory(r.sess.History())
	case "/load":
		r.load(args)
	case "/export":
		r.export(args)
	case "/attach":
		r.attach(ctx, args)
	case "/files":
		r.console.ShowStagedFiles(r.sess.StagedFiles())
	case "/clear-files":
		r.sess.ClearStagedFiles()
		r.console.ShowInfo("Cleared staged files.")
	case "/stats":
		r.console.ShowStats(r.sess.Stats())
	default:
		r.console.ShowError(fmt.Errorf("unknown command %s", cmd))
	}
	return false
}

func (r *repl) send(ctx context.Context, text string) {
	req := r.request
	req.Text = text
	res, err := r.chat.Send(ctx, r.sess, req)
	if err != nil {
		r.console.ShowError(err)
		return
	}
	r.console.ShowReply(res.Reply)
}

func (r *repl) load(args []string) {
	if len(args) != 1 {
		r.console.ShowError(errors.New("usage: /load <n|id>"))
		return
	}
	id := args[0]
	history := r.sess.History()
	if n, err := strconv.Atoi(id); err == nil && n >= 1 && n <= len(history) {
		id = history[n-1].ID
	}
	if err := r.sess.Restore(id); err != nil {
		r.console.ShowError(err)
		return
	}
	r.console.ShowInfo("Loaded conversation %s.", id)
}

func (r *repl) export(args []string) {
	if len(args) == 0 || len(args) > 2 {
		r.console.ShowError(errors.New("usage: /export <json|markdown|txt> [path]"))
		return
	}
	format, err := service.ParseExportFormat(args[0])
	if err != nil {
		r.console.ShowError(err)
		return
	}
	body, err := service.ExportConversation(r.sess.Messages(), format)
	if err != nil {
		r.console.ShowError(err)
		return
	}
	path := service.ExportFilename("manus_chat", format, r.now())
	if len(args) == 2 {
		path = args[1]
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		r.console.ShowError(fmt.Errorf("write export: %w", err))
		return
	}
	r.console.ShowInfo("Exported %d messages to %s.", len(r.sess.Messages()), path)
}

func (r *repl) attach(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		r.console.ShowError(errors.New("usage: /attach <paths...>"))
		return
	}
	files, err := readLocalFiles(paths)
	if err != nil {
		r.console.ShowError(err)
		return
	}
	records := r.uploader.Upload(ctx, files)
	n := r.uploader.Stage(r.sess, records)
	r.console.ShowInfo("%d of %d files staged for the next message.", n, len(files))
}

func readLocalFiles(paths []string) ([]entity.LocalFile, error) {
	files := make([]entity.LocalFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, entity.LocalFile{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}
