/*
Package extract recovers searchable text from slide decks and PDFs.

Supported kinds:

  - pptx: the slide XML parts are read from the zip archive in slide-number
    order and the text runs of each slide become one preview.
  - ppt: legacy binary decks are decoded as Windows-1252 and the printable
    text is kept as a single preview unless it looks like gibberish.
  - pdf: a list of tiers is tried in order until one yields meaningful
    text. NativeTier parses content streams directly, PdftotextTier shells
    out to poppler, and OCRTier rasterizes pages (pdftoppm or libvips),
    preprocesses them, and runs tesseract.

A PDF where no tier finds text is not an error: the result is empty
content, which the indexer stores so the file is not processed again until
its bytes change.

All text goes through CleanText, which strips markup, control characters,
and layout noise such as placeholder names, font names, and language tags.
*/
package extract
