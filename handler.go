package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultIndexKey = "images.json"

// IndexUpdater keeps the index object of a bucket in step with the objects
// uploaded to it.
//
// Updates are read-modify-write with no locking or conditional put, so two
// concurrent updates of the same bucket can lose one of the changes.
type IndexUpdater struct {
	store    ObjectStore
	indexKey string
	skipSelf bool
}

// With skipSelf set, notifications for the index object itself are
// acknowledged without touching the index.
func NewIndexUpdater(store ObjectStore, indexKey string, skipSelf bool) *IndexUpdater {
	if indexKey == "" {
		indexKey = defaultIndexKey
	}
	return &IndexUpdater{
		store:    store,
		indexKey: indexKey,
		skipSelf: skipSelf,
	}
}

func (u *IndexUpdater) logger(ctx context.Context, n Notification) zerolog.Logger {
	lc := Log.With().
		Str("bucket", n.Bucket).
		Str("key", n.Key).
		Int64("size", n.Size)
	if lctx, ok := lambdacontext.FromContext(ctx); ok {
		lc = lc.Str("request_id", lctx.AwsRequestID)
	}
	return lc.Logger()
}

// Update records n in the index of n.Bucket. Nothing is written unless the
// existing index was read and parsed.
func (u *IndexUpdater) Update(ctx context.Context, n Notification) error {
	lg := u.logger(ctx, n)

	if u.skipSelf && n.Key == u.indexKey {
		lg.Info().Msg("Notification is for the index itself, ignoring")
		return nil
	}

	idx, err := u.readIndex(ctx, n.Bucket)
	if err != nil {
		return err
	}

	idx, updated := idx.Upsert(n.Key, n.Size)
	lg.Debug().Bool("updated", updated).Int("entries", len(idx)).Msg("Index entry set")

	body, err := encodeIndex(idx)
	if err != nil {
		return err
	}
	if err := u.store.PutObject(ctx, n.Bucket, u.indexKey, body, jsonContentType); err != nil {
		return err
	}

	lg.Info().Bool("updated", updated).Int("entries", len(idx)).Msg("Index written")
	return nil
}

func (u *IndexUpdater) readIndex(ctx context.Context, bucket string) (Index, error) {
	body, err := u.store.GetObject(ctx, bucket, u.indexKey)
	if errors.Is(err, ErrIndexNotFound) {
		Log.Debug().Str("bucket", bucket).Str("key", u.indexKey).Msg("No index yet, starting empty")
		return Index{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeIndex(body)
}

// HandleS3Event is the Lambda entry point.
func (u *IndexUpdater) HandleS3Event(ctx context.Context, event events.S3Event) (Response, error) {
	n, err := notificationFromS3Event(event)
	if err != nil {
		return Response{}, err
	}
	if err := u.Update(ctx, n); err != nil {
		lg := u.logger(ctx, n)
		lg.Error().Stack().Err(err).Msg("Index update failed")
		return Response{}, err
	}
	return successResponse(), nil
}
