package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"adexport/config"
	"adexport/directory"
	"adexport/logging"
	"adexport/normalize"
	"adexport/sink"
)

var (
	searchFilter string
	outputPath   string
	domain       string
	configDir    string
	sinkKind     string
	compress     bool
	attributes   []string
	timeLimit    int
	pageSize     uint32
)

var rootCmd = &cobra.Command{
	Use:   "adexport",
	Short: "Export directory records over LDAP",
	Long: `Runs a paged LDAP search against a configured directory domain,
normalizes every entry into a flat record and hands the records to the
selected sink.`,
	SilenceUsage: true,
	RunE:         runExport,
}

func init() {
	rootCmd.Flags().StringVarP(&searchFilter, "search", "s", "", "LDAP filter to run against the directory")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file name, may contain a path")
	rootCmd.Flags().StringVarP(&domain, "domain", "d", "", "configured directory domain to search")
	rootCmd.Flags().StringVar(&configDir, "config-dir", "domains", "directory holding per-domain env files")
	rootCmd.Flags().StringVar(&sinkKind, "sink", "file", "record sink: file, stdout, s3, kafka or postgres")
	rootCmd.Flags().BoolVar(&compress, "compress", false, "gzip the output file")
	rootCmd.Flags().StringSliceVar(&attributes, "attributes", nil, "attributes to fetch, default all")
	rootCmd.Flags().IntVar(&timeLimit, "timeout", 0, "per-round search time limit in seconds, 0 for none")
	rootCmd.Flags().Uint32Var(&pageSize, "page-size", 0, "override the configured page size")
	rootCmd.MarkFlagRequired("search")
	rootCmd.MarkFlagRequired("domain")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDomainConfig(configDir, domain)
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel, cfg.LogPretty)
	if pageSize > 0 {
		cfg.PageSize = pageSize
	}

	inst := directory.NewInstance(cfg.Server, cfg.Port, cfg.Protocol, cfg.BaseDN, cfg.PageSize)
	if err := inst.Connect(cfg.BindDN, cfg.Password); err != nil {
		return err
	}
	defer inst.Close()

	result, err := inst.FetchPagedEntries(searchFilter, attributes, timeLimit)
	if err != nil {
		return err
	}
	log.Info().
		Int("entries", len(result.Entries)).
		Bool("paging_ignored", result.PagingIgnored).
		Msg("search complete")

	now := time.Now()
	normalizer := normalize.New(normalize.Provenance{
		Datasource:      inst.Datasource(),
		DatasourceType:  cfg.SourceType,
		DatasourceValue: cfg.SourceValue,
		ExtractTime:     normalize.ExtractTimestamp(now),
	})
	records := normalizer.NormalizeEntries(result.Entries)

	out, err := openSink(cmd.Context(), cfg, now)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := out.Write(record); err != nil {
			out.Close()
			return err
		}
	}
	if err := out.Close(); err != nil {
		return err
	}

	log.Info().Int("records", len(records)).Str("sink", sinkKind).Msg("export complete")
	return nil
}

func defaultOutputName(now time.Time) string {
	return fmt.Sprintf("%s-%s_ad.json", now.UTC().Format("2006-01-02T15:04:05"), domain)
}

func openSink(ctx context.Context, cfg *config.Configuration, now time.Time) (sink.Sink, error) {
	switch sinkKind {
	case "file":
		name := outputPath
		if name == "" {
			name = defaultOutputName(now)
			if compress {
				name += ".gz"
			}
		}
		return sink.NewFileSink(name, compress)
	case "stdout":
		return sink.NewWriterSink(os.Stdout), nil
	case "s3":
		if cfg.S3Region == "" || cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 sink needs S3_REGION and S3_BUCKET configured for domain %s", cfg.Domain)
		}
		key := path.Join(cfg.S3Prefix, defaultOutputName(now)+".gz")
		return sink.NewS3Sink(ctx, cfg.S3Region, cfg.S3Bucket, key, cfg.S3Timeout, cfg.S3Retries)
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 || cfg.KafkaTopic == "" {
			return nil, fmt.Errorf("kafka sink needs KAFKA_BROKERS and KAFKA_TOPIC configured for domain %s", cfg.Domain)
		}
		return sink.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres sink needs POSTGRES_DSN configured for domain %s", cfg.Domain)
		}
		return sink.NewPostgresSink(ctx, cfg.PostgresDSN)
	}
	return nil, fmt.Errorf("unknown sink %q", sinkKind)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
