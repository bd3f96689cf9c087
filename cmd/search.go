package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/careerpilot/jobradar/internal/geo"
	"github.com/careerpilot/jobradar/internal/jobs"
	"github.com/careerpilot/jobradar/internal/logger"
	"github.com/careerpilot/jobradar/internal/search"
)

const (
	PromptReportBySource = "Report by source"
	PromptDumpToFile     = "Dump results to file"
	PromptExit           = "Exit"
)

var errExit = errors.New("exit requested")

var resultPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReportBySource, PromptDumpToFile, PromptExit},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find postings similar to the reference job and rank them",
	Run: func(cmd *cobra.Command, _ []string) {
		runSearch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("title", "", "reference job title (overrides the config file)")
	searchCmd.Flags().String("company", "", "reference company")
	searchCmd.Flags().String("location", "", "reference location, free text or \"lat,lon\"")
	searchCmd.Flags().StringSlice("skills", nil, "reference skills")
	searchCmd.Flags().Float64("radius", 0, "search radius in miles (default 25)")
	searchCmd.Flags().Int("limit", 0, "max results (default 20)")
	searchCmd.Flags().Bool("no-remote", false, "exclude remote postings")
	searchCmd.Flags().BoolP("no-prompt", "y", false, "print results as JSON and exit without prompting")
}

func runSearch(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobradar", zap.String("version", version))

	ref := referenceFromConfigAndFlags(cmd, config)
	if ref.Title == "" {
		logger.Fatal("a reference job title is required",
			zap.String("hint", "set job.title in the config file or pass --title"),
		)
	}

	params := paramsFromConfigAndFlags(cmd, config)

	orchestrator, _, resolver, err := buildPipeline(config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	logger.Info("starting the search",
		zap.String("title", ref.Title),
		zap.String("location", displayLocation(ctx, resolver, ref.Location)),
	)

	result, err := orchestrator.FindSimilarJobs(ctx, ref, params)
	if err != nil {
		logger.Fatal("search failed", zap.Error(err))
	}

	for _, srcErr := range result.SourceErrors {
		logger.Warn("source unavailable",
			zap.String("source", srcErr.Source),
			zap.String("error", srcErr.Message),
		)
	}

	if result.Total == 0 {
		logger.Info("exiting", zap.String("reason", "no similar jobs found"))
		return
	}

	logger.Info("similar jobs found", zap.Int("count", result.Total))

	if noPrompt, _ := cmd.Flags().GetBool("no-prompt"); noPrompt {
		pretty, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	for {
		_, action, err := resultPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, result.SimilarJobs); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, similar jobs.ScoredPostings) error {
	switch action {
	case PromptReportBySource:
		pretty, _ := json.MarshalIndent(similar.ReportBySource(), "", "  ")
		logger.Info(string(pretty), zap.Int("count", similar.Len()))
		return nil
	case PromptDumpToFile:
		filename, err := similar.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumped results to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// displayLocation turns a "lat,lon" reference location back into a readable
// address for the log line. Free-text locations pass through untouched.
func displayLocation(ctx context.Context, resolver *geo.Resolver, location string) string {
	coords, ok := geo.ExtractCoordinates(location)
	if !ok {
		return location
	}
	loc, found := resolver.ReverseGeocode(ctx, coords.Lat, coords.Lon)
	if !found {
		return location
	}
	return loc.FormattedAddress
}

func referenceFromConfigAndFlags(cmd *cobra.Command, config *Config) *jobs.ReferenceJob {
	ref := &jobs.ReferenceJob{}
	if config.Job != nil {
		ref = config.Job
	}

	if title, _ := cmd.Flags().GetString("title"); title != "" {
		ref.Title = title
	}
	if company, _ := cmd.Flags().GetString("company"); company != "" {
		ref.Company = company
	}
	if location, _ := cmd.Flags().GetString("location"); location != "" {
		ref.Location = location
	}
	if skills, _ := cmd.Flags().GetStringSlice("skills"); len(skills) > 0 {
		ref.Skills = skills
	}

	return ref
}

func paramsFromConfigAndFlags(cmd *cobra.Command, config *Config) *search.Params {
	params := &search.Params{}
	if config.Search != nil {
		params.RadiusMiles = config.Search.Radius
		params.Limit = config.Search.Limit
		params.Remote = config.Search.Remote
		params.JobTypes = config.Search.JobTypes
		params.ExperienceLevels = config.Search.ExperienceLevels
	}

	if radius, _ := cmd.Flags().GetFloat64("radius"); radius != 0 {
		params.RadiusMiles = radius
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit != 0 {
		params.Limit = limit
	}
	if noRemote, _ := cmd.Flags().GetBool("no-remote"); noRemote {
		remote := false
		params.Remote = &remote
	}

	return params
}
