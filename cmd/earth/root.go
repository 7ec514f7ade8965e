// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	var file string
	root := &cobra.Command{
		Use:           "earth",
		Short:         "Render geophysical fields on an interactive globe",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, file, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return cfg.setLogger()
		},
	}
	root.PersistentFlags().StringVar(&file, "config", "", "config file (default ./earth.yaml)")
	addConfigFlags(root.PersistentFlags())

	root.AddCommand(newRenderCmd(v), newServeCmd(v), newViewCmd(v))
	return root
}
