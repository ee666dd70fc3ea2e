package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for extraction spans and metrics.
var (
	AttrExtension = attribute.Key("extract.extension")
	AttrFormat    = attribute.Key("extract.format")
	AttrStatus    = attribute.Key("extract.status")

	AttrInputBytes    = attribute.Key("extract.input_bytes")
	AttrHTMLBytes     = attribute.Key("extract.html_bytes")
	AttrImageCount    = attribute.Key("extract.image_count")
	AttrSkippedImages = attribute.Key("extract.skipped_images")
)
