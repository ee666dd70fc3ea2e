// Package pedforum is the backend of a small educational-content portal:
// articles, a materials repository, a message board, and document ingestion.
//
// The root package defines the domain records and the [Store] contract that
// the persistence backends implement. Document ingestion lives in the
// extract subpackage, which turns PDF, DOCX, and plain-text uploads into
// normalized HTML plus inline images.
//
// # Packages
//
//   - extract: format-dispatching document extraction (PDF, DOCX, TXT)
//   - store/postgres, store/sqlite: [Store] implementations
//   - storage: S3-compatible object upload
//   - observer: OpenTelemetry instrumentation for extraction
//
// # Quick Start
//
//	store := sqlite.New("pedforum.db")
//	if err := store.Init(ctx); err != nil {
//		log.Fatal(err)
//	}
//	content, err := extract.Extract(data, "docx")
//	article := pedforum.Article{Title: "Lesson plan", Content: content.HTML}
//	article, err = store.CreateArticle(ctx, article)
package pedforum
