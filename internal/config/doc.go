// Package config loads the YAML run configuration of depara.
//
// A configuration file is optional; every field has a default:
//
//	weights: [0.4, 0.25, 0.2, 0.15]   # slug, title, description, h1 (or "0.4,0.25,0.2,0.15")
//	threshold: 0.8
//	top_n: 7
//	workers: 0                         # 0 = GOMAXPROCS
//	no_match_label: NO_MATCH_AVAILABLE
//	sheets:
//	  source: DE
//	  candidates: RASTREIO
//	  result: DE_x_PARA_Resultado
//	  summary: Resumo
//	crawl:
//	  enabled: false
//	  timeout: 20s
//	  retries: 2
//	  concurrency: 4
//	  requests_per_second: 5
//	rerank:
//	  endpoint: ""                     # empty disables re-ranking
//	  timeout: 60s
//	  requests_per_minute: 30
//	  top_n: 5
//	server:
//	  addr: ":8080"
//	  max_body_bytes: 33554432
//	log_level: info
//
// Weights are kept as the raw decoded value so that a malformed list can
// fall back to the default distribution instead of failing the load.
package config
