package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(listingsCmd)
	rootCmd.AddCommand(retentionCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(metricsCmd)

	listingsCmd.Flags().StringVar(&listingsCategory, "category", "", "Filter by category (teammate or clan)")
	listingsCmd.Flags().StringVar(&listingsTeamSize, "team-size", "", "Filter by team size (duo, trio, quad, quad_plus)")
}

var (
	listingsCategory string
	listingsTeamSize string
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Trigger an expiry sweep cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/sweep")
	},
}

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "List listings, optionally filtered by category and team size",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if listingsCategory != "" {
			params.Set("category", listingsCategory)
		}
		if listingsTeamSize != "" {
			params.Set("team_size", listingsTeamSize)
		}
		endpoint := "/listings"
		if len(params) > 0 {
			endpoint += "?" + params.Encode()
		}
		return performGetRequest(endpoint)
	},
}

var retentionCmd = &cobra.Command{
	Use:   "retention",
	Short: "Show the current retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/retention")
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the users table as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/export/users")
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Post(url, "application/json", strings.NewReader(""))
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
