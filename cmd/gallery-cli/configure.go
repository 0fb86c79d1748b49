package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/gallery/clientcli"
)

var configureCmd = &cobra.Command{
	Use:   "configure [profile]",
	Short: "Save the server endpoint",
	Long: `Prompt for the server endpoint and save it as a profile in
~/.gallery/config.yaml. The profile name defaults to "default".

The endpoint is checked with GET /healthz before saving.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigure,
}

var setDefault bool

func init() {
	configureCmd.Flags().BoolVar(&setDefault, "default", false, "make this the default profile")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	configPath := getConfigPath()

	// Load existing config or create new
	cfg, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = &clientcli.ConfigFile{}
	}

	current := clientcli.DefaultEndpoint
	if p, profileErr := cfg.GetProfile(name); profileErr == nil {
		current = p.Endpoint
	}

	endpointPrompt := promptui.Prompt{
		Label:   "Server URL",
		Default: current,
		Validate: func(input string) error {
			return (&clientcli.Config{Endpoint: input}).Validate()
		},
	}
	endpoint, err := endpointPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	fmt.Print("Testing connection... ")
	if connErr := testServerConnection(cmd.Context(), endpoint); connErr != nil {
		fmt.Println("FAILED")
		fmt.Printf("Warning: %v\n", connErr)

		continuePrompt := promptui.Prompt{Label: "Save anyway", IsConfirm: true}
		if _, promptErr := continuePrompt.Run(); promptErr != nil {
			return handlePromptError(promptErr)
		}
	} else {
		fmt.Println("OK")
	}

	cfg.SetProfile(clientcli.Profile{Name: name, Endpoint: endpoint})
	if setDefault {
		if err := cfg.SetDefault(name); err != nil {
			return err
		}
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Profile '%s' saved to %s\n", name, configPath)
	return nil
}

// testServerConnection checks that the server answers its health endpoint.
func testServerConnection(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := clientcli.New(&clientcli.Config{Endpoint: endpoint})
	if err != nil {
		return err
	}
	return client.Health(ctx)
}

// handlePromptError treats an aborted prompt as a cancelled command.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		return &exitError{code: 130}
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return &exitError{code: 1}
	}
	return err
}
