package cmd

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"github.com/spf13/cobra"
)

// stylesCmd は、選択可能な映像スタイルの一覧を表示するのだ。
var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "選択できる映像スタイルの一覧を表示しますなのだ。",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, s := range domain.DefaultStyles {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n    %s\n", s.ID, s.Name, s.PromptModifier)
		}
		return nil
	},
}
