package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobhackr/internal/analyzer"
	applog "github.com/spigell/jobhackr/internal/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [cv-file]",
	Short: "Analyze a CV and print skills, experience level and a quality score",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		analyze(args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

// cvReport is the analysis plus the detected language of the text.
type cvReport struct {
	*analyzer.CVAnalysis
	Language string `json:"language"`
}

func analyze(args []string) {
	logger, err := applog.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	path := viper.GetString("profile.cv-file")
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		logger.Fatal("cv file is required", zap.String("hint", "pass it as an argument or set profile.cv-file"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading cv", zap.Error(err))
	}

	dict := analyzer.DefaultDictionary()
	if p := viper.GetString("dictionary"); p != "" {
		if dict, err = analyzer.LoadDictionary(p); err != nil {
			logger.Fatal("loading dictionary", zap.Error(err))
		}
	}
	a := analyzer.New(dict)

	text := string(data)
	report := cvReport{
		CVAnalysis: a.AnalyzeCV(text),
		Language:   a.DetectLanguage(text),
	}

	pretty, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("encoding analysis", zap.Error(err))
	}
	fmt.Println(string(pretty))
}
