package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// probeCommand returns the 'probe' subcommand, a smoke test against a running proxy.
func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Send one prompt through a running proxy and print the reply",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "proxy base URL",
				Value: "http://127.0.0.1:4000",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "model name sent in the request (the proxy serves its configured model)",
				Value: "claude-sonnet-4-5",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Groq API key (prompted for when empty)",
				Sources: cli.EnvVars("GROQ_API_KEY"),
			},
			&cli.Int64Flag{
				Name:  "max-tokens",
				Usage: "requested max_tokens",
				Value: 1024,
			},
		},
		Action: probeAction,
	}
}

// probeAction sends the prompt and prints the reply. The key is never stored.
func probeAction(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	apiKey := cmd.String("api-key")
	if apiKey == "" {
		var err error
		apiKey, err = readSecureInput(ctx, "Enter Groq API key: ")
		if err != nil {
			return err
		}
		if apiKey == "" {
			return fmt.Errorf("api key cannot be empty")
		}
	}

	return probe(ctx, os.Stdout, probeRequest{
		BaseURL:   cmd.String("url"),
		APIKey:    apiKey,
		Model:     cmd.String("model"),
		MaxTokens: cmd.Int64("max-tokens"),
		Prompt:    prompt,
	})
}

type probeRequest struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int64
	Prompt    string
}

// probe sends req with the Anthropic SDK and writes each content block to w.
func probe(ctx context.Context, w io.Writer, req probeRequest) error {
	client := anthropic.NewClient(
		option.WithBaseURL(req.BaseURL),
		option.WithAPIKey(req.APIKey),
		option.WithMaxRetries(0),
	)

	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return fmt.Errorf("probe request failed: %w", err)
	}

	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			_, _ = fmt.Fprintln(w, variant.Text)
		case anthropic.ToolUseBlock:
			_, _ = fmt.Fprintf(w, "[tool_use %s] %s\n", variant.Name, variant.Input)
		}
	}
	_, _ = fmt.Fprintf(w, "\n(model=%s stop_reason=%s input_tokens=%d output_tokens=%d)\n",
		msg.Model, msg.StopReason, msg.Usage.InputTokens, msg.Usage.OutputTokens)

	return nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// Goroutine+select pattern required because term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no api key given and stdin is not a terminal")
	}

	fmt.Print(prompt)
	defer fmt.Println()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: strings.TrimSpace(string(inputBytes)), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
