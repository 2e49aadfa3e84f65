package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"askdoc/internal/domain"
	"askdoc/internal/tui"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive question answering in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			assistant, model, err := a.newAssistant()
			if err != nil {
				return err
			}
			// Fail before the screen is taken over if there is nothing to search.
			idx, err := assistant.Index(cmd.Context())
			if err != nil {
				return unableToAnswer(err)
			}
			info := chatInfo(idx, a.cfg.Store.Path, model.Model())
			p := tea.NewProgram(tui.New(cmd.Context(), assistant, info), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

func chatInfo(idx domain.Index, storePath, llmModel string) string {
	return fmt.Sprintf("%d chunks from %s · embeddings %s · %s", idx.Len(), storePath, idx.Model(), llmModel)
}
