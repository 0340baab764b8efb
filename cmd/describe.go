package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photoscribe/pkg/vision"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const describeTimeout = 2 * time.Minute

var describeCmd = &cobra.Command{
	Use:   "describe <image>",
	Short: "Describe a local image file and print the result",
	Long:  "Sends one local image to the inference endpoint with the bot's instruction and prints the model output. Only the inference API key is required.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}

		client, err := vision.New(cfg.Inference, log)
		if err != nil {
			return fmt.Errorf("initialize inference client: %w", err)
		}

		printDescribeBanner(cmd.ErrOrStderr(), client.Model(), args[0])

		ctx, cancel := context.WithTimeout(cmd.Context(), describeTimeout)
		defer cancel()

		return runDescribe(ctx, client, args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

type describer interface {
	Describe(ctx context.Context, imagePath string) (string, error)
}

func runDescribe(ctx context.Context, client describer, imagePath string, out io.Writer) error {
	imagePath = strings.TrimSpace(imagePath)
	if imagePath == "" {
		return errors.New("image path is required")
	}
	if info, err := os.Stat(imagePath); err != nil {
		return fmt.Errorf("open image: %w", err)
	} else if info.IsDir() {
		return fmt.Errorf("open image: %s is a directory", imagePath)
	}

	text, err := client.Describe(ctx, imagePath)
	if err != nil {
		if kind := vision.KindFromError(err); kind != "" {
			return fmt.Errorf("describe image (%s): %w", kind, err)
		}
		return fmt.Errorf("describe image: %w", err)
	}

	_, err = fmt.Fprintln(out, text)
	return err
}

// printDescribeBanner writes the model and file name to w, styled when w is a
// terminal. Output stays on stderr so stdout carries only the description.
func printDescribeBanner(w io.Writer, model string, imagePath string) {
	style := lipgloss.NewRenderer(w).NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("214"))

	fmt.Fprintln(w, style.Render(fmt.Sprintf("%s · %s", model, filepath.Base(strings.TrimSpace(imagePath)))))
}
