package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"veas/site/internal/assets"
	"veas/site/internal/cache"
	"veas/site/internal/search"
	"veas/site/internal/seed"
	"veas/site/internal/snapshot"
)

var (
	seedFile        string
	snapshotMessage string
	snapshotHistory int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load services and sections from YAML into the database",
	Long: `Upserts the services and sections of a YAML content file. Without --file
the built-in site content is used. Cached pages are dropped afterwards.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Push every section into the Meilisearch index",
	Args:  cobra.NoArgs,
	RunE:  runReindex,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Commit the current content to the snapshot repository",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

var syncAssetsCmd = &cobra.Command{
	Use:   "sync-assets",
	Short: "Upload static images and videos to the asset bucket",
	Args:  cobra.NoArgs,
	RunE:  runSyncAssets,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML content file (default: built-in content)")
	snapshotCmd.Flags().StringVarP(&snapshotMessage, "message", "m", "Content snapshot", "commit message")
	snapshotCmd.Flags().IntVar(&snapshotHistory, "history", 0, "print the last N snapshots instead of recording one")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, err := seed.Default()
	if seedFile != "" {
		doc, err = seed.Load(seedFile)
	}
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	result, err := seed.Apply(ctx, rt.store, doc, rt.logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d services and %d sections\n", result.Services, result.Sections)

	if rt.cfg.CacheEnabled() {
		if err := invalidatePages(ctx, rt); err != nil {
			rt.logger.Warn("page cache not cleared", zap.Error(err))
		}
	}
	return nil
}

func invalidatePages(ctx context.Context, rt *appEnv) error {
	pageCache, err := cache.NewPageCache(rt.cfg.RedisURL, rt.cfg.PageCacheTTL)
	if err != nil {
		return err
	}
	defer pageCache.Close()
	return pageCache.Invalidate(ctx)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.cfg.MeiliURL == "" {
		return errors.New("MEILI_URL is not set")
	}
	meili := search.NewMeili(rt.cfg.MeiliURL, rt.cfg.MeiliMasterKey, rt.logger)
	defer meili.Close()

	count, err := search.NewService(meili, nil, rt.logger).ReindexAll(ctx, rt.store)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d sections\n", count)
	return nil
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx, snapshotHistory == 0)
	if err != nil {
		return err
	}
	defer rt.Close()

	repo := snapshot.New(rt.cfg.SnapshotDir, "")
	out := cmd.OutOrStdout()

	if snapshotHistory > 0 {
		commits, err := repo.History(snapshotHistory)
		if err != nil {
			return err
		}
		for _, c := range commits {
			fmt.Fprintf(out, "%s  %s  %s\n", c.Hash, c.CreatedAt.Format("2006-01-02 15:04"), c.Message)
		}
		return nil
	}

	commit, changed, err := repo.Record(ctx, rt.store, snapshotMessage)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(out, "content unchanged since", commit.Hash)
		return nil
	}
	fmt.Fprintln(out, "recorded snapshot", commit.Hash)
	return nil
}

func runSyncAssets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !rt.cfg.MinioEnabled() {
		return errors.New("MINIO_ENDPOINT is not set")
	}
	client, err := assets.NewClient(assets.Config{
		Endpoint:  rt.cfg.MinioEndpoint,
		AccessKey: rt.cfg.MinioAccessKey,
		SecretKey: rt.cfg.MinioSecretKey,
		Bucket:    rt.cfg.MinioBucket,
		UseSSL:    rt.cfg.MinioUseSSL,
	})
	if err != nil {
		return err
	}

	report, err := assets.NewPublisher(client, rt.cfg.MinioBucket, rt.cfg.StaticDir, rt.logger).Sync(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d files, %d unchanged\n", report.Uploaded, report.Skipped)
	return nil
}
