// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/earth"
)

func newRenderCmd(v *viper.Viper) *cobra.Command {
	var output, maskOutput string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one frame to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			s, err := newSession(cmd.Context(), cfg, cfg.view())
			if err != nil {
				return err
			}
			defer s.Close()

			frame, err := s.Render()
			if err != nil {
				return err
			}
			if err := frame.SavePNG(output); err != nil {
				return err
			}
			st := s.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d %s %s (%s)\n",
				output, st.Width, st.Height, st.Projection, st.Orientation, st.Engine)

			if maskOutput != "" {
				return writeMask(s.Mask(), maskOutput)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "earth.png", "output PNG file")
	cmd.Flags().StringVar(&maskOutput, "mask", "", "also write the visibility mask as a 1-bit PNG")
	return cmd
}

// writeMask encodes m as a 1-bit PNG at path.
func writeMask(m *earth.Mask, path string) error {
	if m == nil {
		return errors.New("earth: no mask to write")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.WritePNG(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
