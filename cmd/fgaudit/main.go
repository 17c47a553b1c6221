// Command fgaudit inspects and stamps FitGen provenance watermarks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"studio/internal/config"
	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/provenance"
	"studio/internal/source"
	"studio/internal/storage"
	"studio/internal/watermark"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type extractReport struct {
	File     string              `json:"file"`
	Found    bool                `json:"found"`
	Metadata *watermark.Metadata `json:"metadata,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "fgaudit",
		Short:        "Inspect and stamp FitGen provenance watermarks",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to fgaudit TOML config")

	extractCmd := &cobra.Command{
		Use:   "extract FILE...",
		Short: "Print the provenance metadata embedded in images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.OutOrStdout(), args)
		},
	}

	capacityCmd := &cobra.Command{
		Use:   "capacity FILE",
		Short: "Show how many payload bytes an image can carry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapacity(cmd.OutOrStdout(), args[0])
		},
	}

	var (
		userID    string
		imageID   string
		tier      string
		timestamp int64
		outDir    string
		name      string
	)
	stampCmd := &cobra.Command{
		Use:   "stamp REF...",
		Short: "Apply the provenance watermark to image references",
		Long: "REF is an http(s) URL, a data URI, an s3://bucket/key object or a key in the local store.\n" +
			"Results are written to the configured sink. --image and --name need a single REF.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 && (imageID != "" || name != "") {
				return errors.New("--image and --name apply to a single REF")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Output = config.OutputConfig{Sink: "dir", Dir: outDir}
			}
			if tier == "" {
				tier = cfg.DefaultTier
			}
			if timestamp == 0 {
				timestamp = time.Now().UnixMilli()
			}
			reqs := make([]provenance.Request, 0, len(args))
			for i, ref := range args {
				id := imageID
				if id == "" {
					id = refBaseName(ref, i)
				}
				fileName := name
				if fileName == "" {
					fileName = id
				}
				reqs = append(reqs, provenance.Request{
					ImageURL: ref,
					FileName: fileName,
					Tier:     domain.ParseTier(tier),
					Metadata: watermark.Metadata{UserID: userID, ImageID: id, Timestamp: timestamp},
				})
			}
			return runStamp(cmd.Context(), cmd.OutOrStdout(), cfg, reqs)
		},
	}
	stampCmd.Flags().StringVar(&userID, "user", "", "user id to embed (required)")
	stampCmd.Flags().StringVar(&imageID, "image", "", "image id to embed (defaults to the reference base name)")
	stampCmd.Flags().StringVar(&tier, "tier", "", "tier deciding the visible overlay: free, pro or business")
	stampCmd.Flags().Int64Var(&timestamp, "timestamp", 0, "timestamp to embed (defaults to now, unix milliseconds)")
	stampCmd.Flags().StringVarP(&outDir, "out", "o", "", "write to this directory instead of the configured sink")
	stampCmd.Flags().StringVar(&name, "name", "", "output file name")
	_ = stampCmd.MarkFlagRequired("user")

	root.AddCommand(extractCmd, capacityCmd, stampCmd)
	return root
}

func runExtract(out io.Writer, files []string) error {
	enc := json.NewEncoder(out)
	missing := 0
	for _, file := range files {
		report := extractReport{File: file}
		img, err := decodeFile(file)
		if err != nil {
			report.Error = err.Error()
			missing++
		} else if meta, ok := watermark.ExtractImage(img); ok {
			report.Found = true
			report.Metadata = &meta
		} else {
			missing++
		}
		if err := enc.Encode(report); err != nil {
			return err
		}
	}
	if missing == len(files) {
		return errors.New("no watermark found")
	}
	return nil
}

func runCapacity(out io.Writer, file string) error {
	img, err := decodeFile(file)
	if err != nil {
		return err
	}
	b := img.Bounds()
	pixels := b.Dx() * b.Dy()
	bits := watermark.Capacity(watermark.Pixels(img))
	_, err = fmt.Fprintf(out, "%s: %dx%d, %d pixels, %d payload bytes\n", file, b.Dx(), b.Dy(), pixels, bits/8)
	return err
}

// refBaseName names a stamped image after its reference. Data URIs carry no
// usable name and are numbered by position instead.
func refBaseName(ref string, i int) string {
	if strings.HasPrefix(strings.ToLower(ref), "data:") {
		return fmt.Sprintf("image-%d", i+1)
	}
	base := filepath.Base(ref)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runStamp(ctx context.Context, out io.Writer, cfg *config.Config, reqs []provenance.Request) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "fgaudit").Logger()

	mux, s3store, err := buildSources(ctx, cfg, logger)
	if err != nil {
		return err
	}
	sink, err := buildSink(cfg, s3store)
	if err != nil {
		return err
	}

	orch := provenance.New(mux, watermark.Policy{Bypass: watermark.EnvBypass(watermark.BypassEnvKey)}, logger)
	failed := 0
	for _, outcome := range orch.DownloadBatch(ctx, reqs, sink, provenance.DefaultBatchLimit) {
		if outcome.Err != nil {
			failed++
			logger.Error().Err(outcome.Err).Str("ref", outcome.Request.ImageURL).Msg("stamp failed")
			continue
		}
		result := outcome.Result
		if _, err := fmt.Fprintf(out, "%s %dx%d overlay=%s watermark=%s blake3=%s\n",
			result.FileName, result.Width, result.Height, result.Overlay, result.Embed, result.Checksum); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d references failed", failed, len(reqs))
	}
	return nil
}

func buildSources(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*source.Mux, *storage.S3Store, error) {
	mux := &source.Mux{
		HTTP: source.NewHTTPLoader(source.HTTPOptions{
			AllowedHosts: cfg.Sources.AllowedHosts,
			MaxBytes:     cfg.Sources.MaxBytes,
			Timeout:      cfg.Sources.Timeout(),
			Logger:       logger,
		}),
		Data:      source.DataURI{MaxBytes: cfg.Sources.MaxBytes},
		MaxPixels: cfg.Sources.MaxPixels,
	}
	if cfg.Storage.Path != "" {
		if info, err := os.Stat(cfg.Storage.Path); err == nil && info.IsDir() {
			store, err := storage.NewFileStore(cfg.Storage.Path)
			if err != nil {
				return nil, nil, err
			}
			mux.Store = store
		}
	}
	var s3store *storage.S3Store
	if cfg.S3.Enabled() {
		var err error
		s3store, err = storage.NewS3Store(ctx, storage.S3Options{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, nil, err
		}
		mux.Objects = s3store
	}
	return mux, s3store, nil
}

func buildSink(cfg *config.Config, s3store *storage.S3Store) (provenance.Sink, error) {
	switch cfg.Output.Sink {
	case "s3":
		if s3store == nil {
			return nil, errors.New("s3 sink requires an s3 configuration")
		}
		return provenance.StoreSink{Store: s3store, Prefix: cfg.S3.Prefix}, nil
	default:
		return provenance.DirSink{Dir: cfg.Output.Dir}, nil
	}
}
