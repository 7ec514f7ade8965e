// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/earth"
	"github.com/gogpu/earth/internal/tui"
)

func newViewCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Explore the globe in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			// Log lines would corrupt the alternate screen.
			earth.SetLogger(nil)

			// The first WindowSizeMsg resizes to the terminal.
			s, err := newSession(cmd.Context(), cfg, earth.View{Width: 80, Height: 44})
			if err != nil {
				return err
			}
			defer s.Close()

			m := tui.New(s)
			defer m.Close()
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
			return err
		},
	}
}
