package api

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/qri-io/jsonschema"
)

const maxBodyBytes = 1 << 20

//go:embed schemas/*.json
var schemaFS embed.FS

// schemas holds the compiled request schemas keyed by file name without extension.
var schemas = mustLoadSchemas()

func mustLoadSchemas() map[string]*jsonschema.Schema {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		panic(fmt.Sprintf("read schemas: %v", err))
	}
	out := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		b, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			panic(fmt.Sprintf("read schema %s: %v", e.Name(), err))
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			panic(fmt.Sprintf("compile schema %s: %v", e.Name(), err))
		}
		out[strings.TrimSuffix(e.Name(), ".json")] = rs
	}
	return out
}

// decodeBody validates the request body against the named schema and decodes it into dst.
func decodeBody(r *http.Request, schema string, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return errBadRequest("read body")
	}
	if len(body) > maxBodyBytes {
		return errBadRequest("body too large")
	}
	if len(body) == 0 {
		return errBadRequest("empty body")
	}

	rs, ok := schemas[schema]
	if !ok {
		return fmt.Errorf("unknown schema %q", schema)
	}
	verrs, err := rs.ValidateBytes(r.Context(), body)
	if err != nil {
		return errBadRequest("invalid json")
	}
	if len(verrs) > 0 {
		details := make([]string, len(verrs))
		for i, ve := range verrs {
			details[i] = strings.TrimSpace(ve.PropertyPath + " " + ve.Message)
		}
		return errBadRequest("request does not match schema", details...)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return errBadRequest("invalid json")
	}
	return nil
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadRequest("invalid id")
	}
	return id, nil
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}
