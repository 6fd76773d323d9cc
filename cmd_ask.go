package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linae/config"
	"linae/intake"
	"linae/model"
	"linae/sequencer"
)

var (
	askImage string
	askDoc   string
	askJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [text]",
	Short: "Run one turn through the stack and print the reply",
	Long: `Submits a single message, optionally with an image or document, and
prints the final answer. With --json the whole agent turn, including the
reflex draft and resonance score, is written to stdout.

Examples:
  linae ask "What is a checkpoint?"
  linae ask --doc notes.pdf "Summarize this"
  linae ask --json --image diagram.png`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askImage, "image", "", "Attach an image (png, jpeg, gif, webp)")
	askCmd.Flags().StringVar(&askDoc, "doc", "", "Attach a document (pdf, docx, text)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the agent turn as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	sub := model.Submission{Text: strings.Join(args, " ")}
	if askImage != "" {
		img, err := intake.LoadImage(askImage)
		if err != nil {
			return err
		}
		sub.Image = img
	}
	if askDoc != "" {
		doc, err := intake.LoadDocument(askDoc)
		if err != nil {
			return err
		}
		sub.Document = doc
	}
	if sub.Empty() {
		return errors.New("nothing to ask: give text, --image or --doc")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := config.NewCLILogger(verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	session, cleanup, err := newSession(cfg, logger, sequencer.NoPacing())
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	turn, err := session.Submit(ctx, sub)
	if err != nil {
		logger.Error("turn failed", zap.Error(err))
		return err
	}

	out := cmd.OutOrStdout()
	if askJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(turn)
	}

	fmt.Fprintln(out, turn.Content)
	if res := turn.Result; res != nil {
		status := "harmonized"
		if res.Intervention {
			status = "intervention"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\n[%s] resonance %.0f/100, reflex confidence %.0f%%\n",
			status, res.ResonanceScore, res.ReflexConfidence)
		for i, c := range res.GroundingSources {
			fmt.Fprintf(cmd.ErrOrStderr(), "  [%d] %s %s\n", i+1, c.Title, c.URI)
		}
	}
	return nil
}
