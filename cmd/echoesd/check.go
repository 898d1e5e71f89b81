package main

import (
	"fmt"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/fileloader"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

func runCheckConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	printable := cfg
	printable.DialogueService.APIKey = configs.ConfigSecret(cfg.DialogueService.APIKey.String())

	b, err := yaml.Marshal(printable)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "# effective config (%s)\n%s", configFlag, b)

	if writeFlag == `` {
		return nil
	}

	if err := fileloader.SaveFlatFile(writeFlag, cfg.WithFilepath(configs.DefaultConfigFile), fileloader.SaveCareful); err != nil {
		return err
	}
	fmt.Fprintf(out, "# written to %s/%s\n", writeFlag, configs.DefaultConfigFile)
	return nil
}
