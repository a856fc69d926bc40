// Package core provides the business logic for vocabulary uploads.
//
// The package turns spreadsheet-style input (CSV, TSV, pasted text, xlsx
// workbooks or Google Sheets) into typed vocabulary records and stores them
// as course days. It has no knowledge of HTTP or SQL; web handlers, the CLI
// and tests drive it through [Service] and the parsing functions.
//
// # Ingestion Pipeline
//
// [ParseBytes], [ParseString] and [ParseRows] run the same stages:
//
//  1. Decode bytes to text, honoring a UTF-8 or UTF-16 byte order mark
//  2. Sniff the delimiter from the first line ([SniffDelimiter])
//  3. Tokenize into rows; xlsx input is read from the first sheet
//  4. Detect a header row or assign positional headers ([DetectHeader])
//  5. Drop a leading row-number column ([StripLeadingColumn])
//  6. Map cells to canonical fields through the alias tables ([NormalizeRow])
//  7. Validate required fields and build [StandardWord] or [CollocationWord]
//
// Rows that fail validation are reported as "Row N: ..." messages and never
// stop the parse. The result always carries the detected kind and headers.
//
// # Courses and Days
//
// Courses are registered at init time with [RegisterCourse]. The
// collocation course fixes the record kind of everything uploaded into it;
// the others parse standard words. Days are numbered from 1 and named
// Day1, Day2 and so on ([DayName]).
//
// # Uploads
//
// [Service.StartUpload] runs parse, optional pronunciation and enrichment,
// and the day replacement in the background. Progress is broadcast to
// subscribers via [Service.SubscribeProgress]; at most
// [ServiceConfig].MaxConcurrent uploads run at once.
//
// Persistence, spreadsheet fetching, pronunciation lookup and enrichment are
// ports ([Store], [SheetFetcher], [Pronouncer], [Enricher]) implemented in
// sibling packages.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB005: Database errors
//   - VAL001-VAL003: Validation errors
//   - FILE001-FILE006: File errors
//   - SHEET001-SHEET003: Spreadsheet errors
//   - CRS001-CRS003: Course and day errors
//   - UPL001-UPL005: Upload errors
package core
