// Package seo implements the quality-variant scoring engine: a
// keyword-indicator score across four qualitative dimensions (expertise,
// experience, authoritativeness, trustworthiness), an additive
// search-optimization rubric, and a weighted combination of both. It
// also assembles schema.org Article metadata from final pipeline output.
//
// All scoring is deterministic and reproducible from content text alone.
package seo
