package events

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// ExportJournal writes every event in the store as a stream of msgpack values.
func ExportJournal(w io.Writer, store EventStore) (int, error) {
	all, err := store.ReadAllEvents(0)
	if err != nil {
		return 0, err
	}

	enc := msgpack.NewEncoder(w)
	for i, e := range all {
		if err := enc.Encode(&e); err != nil {
			return i, fmt.Errorf("encode event %d: %w", i, err)
		}
	}
	return len(all), nil
}

// ImportJournal replays a msgpack journal into store. Versions are reassigned by the store.
func ImportJournal(ctx context.Context, r io.Reader, store EventStore) (int, error) {
	dec := msgpack.NewDecoder(r)
	n := 0
	for {
		var e Event
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("decode event %d: %w", n, err)
		}
		if _, err := store.AppendEvent(ctx, e); err != nil {
			return n, err
		}
		n++
	}
}
