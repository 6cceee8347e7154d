package templates

import "os"

const configTemplate = `# agri-server configuration. Every key can be overridden with an AGRI_
# environment variable, e.g. AGRI_PORT or AGRI_DB_DRIVER.
port: 8000
host: 0.0.0.0
environment: dev
# Base URL prefixed to locally stored upload links. Empty keeps them relative.
public_url: ""
filesystem_type: local

# Empty lets onnxruntime_go find the shared library itself.
onnxruntime_lib: ""
# Models loaded at startup; the rest load on first request.
warmup_models: []

db:
  driver: sqlite
  debug: false

s3:
  endpoint_url: ""
  region_name: ""
  bucket_name: ""
  folder: "uploads"
  public_url: ""

openai:
  model: gpt-4o-mini
  max_retries: 3
  timeout: 30s

auth:
  token_ttl: 24h

rate_limit:
  requests_per_minute: 30
  burst: 10

moderation:
  enabled: false
  model: gpt-4o-mini
`

func GetConfigTemplate() string {
	return configTemplate
}

func WriteConfig(path string) error {
	return writeFile(path, GetConfigTemplate())
}

func writeFile(path, content string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(content)
	return err
}
