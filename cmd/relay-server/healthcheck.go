package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/simally/relay/internal/relay"
)

var (
	healthcheckURL     string
	healthcheckTimeout time.Duration
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd probes a running relay server
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that a running relay server answers its health endpoint",
	Long: `Query GET /api/health on a running relay server and report the number of
active conversations. Exits non-zero when the server is unreachable or unhealthy,
which makes it usable as a container health probe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(sectionStyle.Render("Relay Health Check"))
		fmt.Println()

		fmt.Println(infoStyle.Render("Querying " + healthURL(healthcheckURL) + " ..."))
		health, err := fetchHealth(cmd.Context(), healthcheckURL, healthcheckTimeout)
		if err != nil {
			fmt.Println(errorStyle.Render("❌ Relay is not healthy:"), err)
			return err
		}

		fmt.Println(successStyle.Render("✅ Relay is " + health.Status))
		fmt.Printf("   Active conversations: %d\n", health.ActiveConversations)
		fmt.Printf("   Framework: %s\n", health.Framework)
		return nil
	},
}

func init() {
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "http://localhost:8000", "Base URL of the relay server")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "Request timeout")
}

func healthURL(base string) string {
	return strings.TrimRight(base, "/") + "/api/health"
}

func fetchHealth(ctx context.Context, base string, timeout time.Duration) (*relay.HealthStatus, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL(base), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var health relay.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	if health.Status != "healthy" {
		return nil, fmt.Errorf("server reported status %q", health.Status)
	}
	return &health, nil
}
