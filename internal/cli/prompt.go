package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrPromptCancelled is returned when the user interrupts a prompt
var ErrPromptCancelled = errors.New("prompt cancelled")

// Prompter asks the user for a value
type Prompter interface {
	Input(ctx context.Context, message, def string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(ctx context.Context, message, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: message,
		Default: def,
	}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(required)); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", ErrPromptCancelled
		}
		return "", err
	}
	return out, nil
}

func required(v interface{}) error {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return errors.New("이 항목은 필수입니다")
	}
	return nil
}
