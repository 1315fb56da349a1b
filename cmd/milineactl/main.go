package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "milineactl",
		Short: "CLI client for the milinea transit assistant REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Service base URL")

	chatCmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one conversational turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			return runChat(apiFlag, args[0], sessionID, os.Stdout)
		},
	}
	chatCmd.Flags().StringP("session", "s", "", "Session ID to continue a conversation")
	rootCmd.AddCommand(chatCmd)

	fastestCmd := &cobra.Command{
		Use:   "fastest",
		Short: "Query fastest lines between two coordinate pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			oLng, _ := cmd.Flags().GetFloat64("origin-lng")
			oLat, _ := cmd.Flags().GetFloat64("origin-lat")
			dLng, _ := cmd.Flags().GetFloat64("dest-lng")
			dLat, _ := cmd.Flags().GetFloat64("dest-lat")
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			return runFastest(apiFlag, oLng, oLat, dLng, dLat, threshold, os.Stdout)
		},
	}
	fastestCmd.Flags().Float64("origin-lng", 0, "Origin longitude (required)")
	fastestCmd.Flags().Float64("origin-lat", 0, "Origin latitude (required)")
	fastestCmd.Flags().Float64("dest-lng", 0, "Destination longitude (required)")
	fastestCmd.Flags().Float64("dest-lat", 0, "Destination latitude (required)")
	fastestCmd.Flags().Float64("threshold", 0, "Proximity threshold in meters (0 = server default)")
	for _, f := range []string{"origin-lng", "origin-lat", "dest-lng", "dest-lat"} {
		_ = fastestCmd.MarkFlagRequired(f)
	}
	rootCmd.AddCommand(fastestCmd)

	unresolvedCmd := &cobra.Command{
		Use:   "unresolved",
		Short: "List place labels that failed resolution",
		RunE: func(cmd *cobra.Command, args []string) error {
			minHits, _ := cmd.Flags().GetInt("min-hits")
			return runUnresolved(apiFlag, minHits, os.Stdout)
		},
	}
	unresolvedCmd.Flags().IntP("min-hits", "m", 2, "Minimum hit count to include")
	rootCmd.AddCommand(unresolvedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
