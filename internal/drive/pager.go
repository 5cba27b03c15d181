package drive

import (
	"context"
	"iter"
	"log/slog"
)

// PageLister fetches one page of a files.list query. *Client implements it;
// tests substitute in-memory fakes.
type PageLister interface {
	ListFiles(ctx context.Context, q ListQuery, pageToken string) (*FileList, error)
}

// Paginate returns a lazy sequence over every file matching q, fetching pages
// on demand and carrying the continuation cursor forward until the service
// returns none. Each call to the returned sequence starts a fresh listing;
// a listing cannot be resumed mid-stream.
//
// A list failure is yielded once as (File{}, err) and ends the sequence.
// There is no retry here beyond what the lister's transport does.
// One progress line is logged per page with counts only.
func Paginate(ctx context.Context, lister PageLister, q ListQuery, logger *slog.Logger) iter.Seq2[File, error] {
	if logger == nil {
		logger = slog.Default()
	}

	return func(yield func(File, error) bool) {
		var (
			pageToken string
			page      int
			total     int
		)

		for {
			list, err := lister.ListFiles(ctx, q, pageToken)
			if err != nil {
				yield(File{}, err)
				return
			}

			page++
			total += len(list.Files)
			more := list.NextPageToken != ""

			logger.Info("retrieved files page",
				slog.Int("page", page),
				slog.Int("count", len(list.Files)),
				slog.Int("total", total),
				slog.Bool("more", more),
			)

			for i := range list.Files {
				if !yield(list.Files[i], nil) {
					return
				}
			}

			if !more {
				return
			}

			pageToken = list.NextPageToken
		}
	}
}
