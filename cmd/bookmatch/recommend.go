package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/bookmatch/internal/app"
	"github.com/hyperifyio/bookmatch/internal/prompt"
)

func addLLMFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("catalog", app.DefaultCatalog, "Catalog path")
	f.String("llm.base", "", "OpenAI-compatible base URL")
	f.String("llm.model", app.DefaultModel, "Model name")
	f.String("llm.key", "", "API key for the model endpoint")
	f.Bool("explain", false, "Ask the model for a reason per pick")
	f.Bool("shuffle", false, "Shuffle the catalog in the prompt (disables the response cache)")
}

func newRecommendCmd() *cobra.Command {
	var answersPath string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend books from the catalog for one survey",
		Long: `Recommend sends the survey answers and the catalog to the model and prints
two ranked lists: books the reader will likely enjoy and books that stretch
their taste. Without --answers the built-in sample survey is used.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, app.OpRecommend)
			if err != nil {
				return err
			}
			defer a.Close()
			survey := prompt.Survey{Questions: prompt.SampleQuestions(), Answers: prompt.SampleAnswers()}
			if strings.TrimSpace(answersPath) != "" {
				if survey, err = app.LoadSurvey(answersPath); err != nil {
					return err
				}
			}
			client := a.ModelClient()
			a.Preflight(cmd.Context(), client)
			recs, err := a.Recommend(cmd.Context(), client, survey)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		},
	}
	addLLMFlags(cmd)
	cmd.Flags().StringVar(&answersPath, "answers", "", "YAML or JSON survey file")
	return cmd
}
