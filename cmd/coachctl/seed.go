package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"alcyxob/coach-app/internal/domain"
	"alcyxob/coach-app/internal/repository/mongo"
	"alcyxob/coach-app/internal/service"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout accepted by seed-catalog.
type seedFile struct {
	Exercises []seedExercise `yaml:"exercises"`
}

type seedExercise struct {
	Name        string   `yaml:"name"`
	Slug        string   `yaml:"slug"`
	Description string   `yaml:"description"`
	Equipment   []string `yaml:"equipment"`
	Tags        []string `yaml:"tags"`
	Names       []struct {
		Name    string `yaml:"name"`
		Locale  string `yaml:"locale"`
		Primary bool   `yaml:"primary"`
	} `yaml:"names"`
	Categories []struct {
		Type   string            `yaml:"type"`
		Name   string            `yaml:"name"`
		Labels map[string]string `yaml:"labels"`
	} `yaml:"categories"`
	Muscles []struct {
		Muscle string `yaml:"muscle"`
		Role   string `yaml:"role"`
	} `yaml:"muscles"`
	Media []struct {
		Type string `yaml:"type"`
		URL  string `yaml:"url"`
	} `yaml:"media"`
	Instructions []struct {
		Locale         string   `yaml:"locale"`
		Setup          string   `yaml:"setup"`
		ExecutionSteps []string `yaml:"steps"`
		CommonMistakes string   `yaml:"mistakes"`
		Cues           string   `yaml:"cues"`
		Breathing      string   `yaml:"breathing"`
	} `yaml:"instructions"`
}

func parseSeed(data []byte) ([]service.CreateExerciseInput, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("seed: file is empty")
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}

	out := make([]service.CreateExerciseInput, 0, len(f.Exercises))
	for i, e := range f.Exercises {
		if e.Name == "" {
			return nil, fmt.Errorf("seed: exercise %d has no name", i+1)
		}
		in := service.CreateExerciseInput{
			Name:        e.Name,
			Slug:        e.Slug,
			Description: e.Description,
			Equipment:   e.Equipment,
			Tags:        e.Tags,
		}
		for _, n := range e.Names {
			in.Names = append(in.Names, domain.ExerciseName{Name: n.Name, Locale: n.Locale, IsPrimary: n.Primary})
		}
		for _, c := range e.Categories {
			in.Categories = append(in.Categories, domain.ExerciseCategory{TypeSlug: c.Type, NameSlug: c.Name, Labels: c.Labels})
		}
		for _, m := range e.Muscles {
			in.Muscles = append(in.Muscles, domain.ExerciseMuscle{Muscle: m.Muscle, Role: m.Role})
		}
		for j, m := range e.Media {
			in.Media = append(in.Media, domain.ExerciseMedia{
				Type:      m.Type,
				URL:       m.URL,
				Provider:  domain.MediaProviderExternal,
				IsPrimary: j == 0,
			})
		}
		for _, ins := range e.Instructions {
			in.Instructions = append(in.Instructions, domain.ExerciseInstruction{
				Locale:         ins.Locale,
				Setup:          ins.Setup,
				ExecutionSteps: ins.ExecutionSteps,
				CommonMistakes: ins.CommonMistakes,
				Cues:           ins.Cues,
				Breathing:      ins.Breathing,
			})
		}
		out = append(out, in)
	}
	return out, nil
}

// seedCatalog creates every exercise, skipping the ones whose slug exists.
func seedCatalog(ctx context.Context, catalog service.CatalogService, inputs []service.CreateExerciseInput, out io.Writer) (created, skipped int, err error) {
	for _, in := range inputs {
		e, err := catalog.CreateExercise(ctx, in)
		switch {
		case errors.Is(err, service.ErrConflict):
			skipped++
			fmt.Fprintf(out, "skip    %s (already in catalog)\n", in.Name)
		case err != nil:
			return created, skipped, fmt.Errorf("create %q: %w", in.Name, err)
		default:
			created++
			fmt.Fprintf(out, "created %s\n", e.Slug)
		}
	}
	return created, skipped, nil
}

var seedFilePath string

var seedCmd = &cobra.Command{
	Use:   "seed-catalog",
	Short: "Load exercises from a YAML file into the catalog",
	Long: `Load exercises from a YAML file. Exercises whose slug is already in the
catalog are skipped, so the command can be run repeatedly.

  exercises:
    - name: Press de banca
      names:
        - {name: Bench press, locale: en, primary: true}
      categories:
        - {type: muscle_group, name: pecho, labels: {es: Pecho, en: Chest}}
      equipment: [barra, banco]`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(seedFilePath)
		if err != nil {
			return err
		}
		inputs, err := parseSeed(data)
		if err != nil {
			return err
		}

		client, err := mongo.ConnectDB(cfg.Database)
		if err != nil {
			return err
		}
		defer mongo.DisconnectDB(client)
		db := client.Database(cfg.Database.Name)

		catalog := service.NewCatalogService(mongo.NewMongoExerciseRepository(db), mongo.NewMongoSessionExerciseRepository(db), nil)
		created, skipped, err := seedCatalog(cmd.Context(), catalog, inputs, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d created, %d skipped\n", created, skipped)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFilePath, "file", "f", "catalog.yaml", "seed file")
	rootCmd.AddCommand(seedCmd)
}
