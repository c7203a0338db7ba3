package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/nizhal-navigator/internal/container"
	"github.com/FACorreiaa/nizhal-navigator/internal/types"
)

var (
	askLat float64
	askLon float64
)

var askCmd = &cobra.Command{
	Use:   `ask "<question>"`,
	Short: "Ask a single question and print the response as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return errors.New("question must not be empty")
		}

		loc, err := askLocation(cmd)
		if err != nil {
			return err
		}

		c, err := container.NewContainer(cmd.Context(), &cfg, logger)
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.ChatService.GetAiChatResponse(cmd.Context(), query, loc)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func askLocation(cmd *cobra.Command) (*types.UserLocation, error) {
	latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
	if !latSet && !lonSet {
		return nil, nil
	}
	if latSet != lonSet {
		return nil, errors.New("--lat and --lon must be given together")
	}
	loc := &types.UserLocation{Latitude: askLat, Longitude: askLon}
	if !loc.Valid() {
		return nil, fmt.Errorf("location %v,%v is out of range", askLat, askLon)
	}
	return loc, nil
}

func init() {
	askCmd.Flags().Float64Var(&askLat, "lat", 0, "Latitude of the user")
	askCmd.Flags().Float64Var(&askLon, "lon", 0, "Longitude of the user")
	rootCmd.AddCommand(askCmd)
}
