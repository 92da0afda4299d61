// Package embeddings provides embedding generation via multiple providers.
//
// Supports FastEmbed (local ONNX, default), TEI (external service) and
// OpenAI-compatible APIs. NewProvider selects one at runtime with automatic
// dimension detection for common models. The default model is
// sentence-transformers/all-MiniLM-L6-v2, the model Chroma itself embeds with.
package embeddings
