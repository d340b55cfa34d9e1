package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kandev/kanban/internal/board/models"
)

var (
	exportOwner string
	exportBoard string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print an owner's boards as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, cleanups, err := provideBackend(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer runCleanups(cleanups, log)

		owner := exportOwner
		if owner == "" {
			owner = cfg.Auth.AnonymousOwner
		}
		boards, err := backend.Load(cmd.Context(), owner)
		if err != nil {
			return fmt.Errorf("failed to load boards: %w", err)
		}
		if exportBoard != "" {
			boards = selectBoard(boards, exportBoard)
			if len(boards) == 0 {
				return fmt.Errorf("board %s not found for owner %s", exportBoard, owner)
			}
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(map[string]interface{}{"owner": owner, "boards": boards}); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOwner, "owner", "", "Owner id (defaults to auth.anonymousOwner)")
	exportCmd.Flags().StringVar(&exportBoard, "board", "", "Export only this board")
}

func selectBoard(boards []models.Board, id string) []models.Board {
	for _, b := range boards {
		if b.ID == id {
			return []models.Board{b}
		}
	}
	return nil
}
