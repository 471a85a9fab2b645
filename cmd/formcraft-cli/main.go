package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/modules/formgen"
	"github.com/yungbote/formcraft-backend/internal/platform/envutil"
	"github.com/yungbote/formcraft-backend/internal/platform/llmprovider"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

var languages = []string{"English", "Spanish", "French", "German", "Portuguese", "Italian", "Japanese", "Chinese"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "formcraft-cli: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	provider, credential, err := llmprovider.FromEnv(ctx, log)
	if err != nil {
		return err
	}
	svc := formgen.New(log, provider, formgen.WithCredentialName(credential))
	fmt.Fprintf(os.Stderr, "AI provider: %s\n", svc.ProviderName())

	var answers struct {
		Description string
		Language    string
	}
	questions := []*survey.Question{
		{
			Name:     "description",
			Prompt:   &survey.Multiline{Message: "Describe the form you need"},
			Validate: survey.Required,
		},
		{
			Name:   "language",
			Prompt: &survey.Select{Message: "Language", Options: languages, Default: forms.DefaultLanguage},
		},
	}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	gen := svc.GenerateForms(ctx, answers.Description, answers.Language)
	if gen.Fallback {
		fmt.Fprintln(os.Stderr, "Model unavailable; showing sample forms.")
	}

	options := make([]string, 0, len(gen.Forms)+1)
	for i, f := range gen.Forms {
		options = append(options, fmt.Sprintf("%d. %s", i+1, f.Title))
	}
	options = append(options, "Keep both as they are")
	var pick int
	if err := survey.AskOne(&survey.Select{Message: "Refine one of the drafts?", Options: options}, &pick); err != nil {
		return err
	}
	if pick < len(gen.Forms) {
		var instruction string
		if err := survey.AskOne(&survey.Input{Message: "What should change?"}, &instruction); err != nil {
			return err
		}
		if strings.TrimSpace(instruction) != "" {
			refined, err := svc.RefineForm(ctx, gen.Forms[pick], instruction)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Refinement failed (%v); keeping the original draft.\n", err)
			} else {
				gen.Forms[pick] = refined
			}
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(gen.Forms)
}
