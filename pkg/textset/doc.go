// Package textset embeds the spreadsheet ingestion pipeline in a Go program.
//
// The client opens the SQLite store shared with the account service and runs
// the same validate, parse, segment, embed and commit steps as the HTTP API:
//
//	client, _ := textset.New(ctx,
//	    textset.WithSQLite("data/textset.db"),
//	    textset.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	sum, err := client.Ingest(ctx, textset.Upload{
//	    Owner:       ownerID,
//	    TextSet:     textSetID,
//	    FileName:    "posts.xlsx",
//	    ContentType: textset.ContentTypeXLSX,
//	    Data:        data,
//	})
//	if errors.Is(err, textset.ErrInvalidDate) { ... }
//
// Every upload commits all its items or none.
package textset
