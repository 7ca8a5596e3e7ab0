package file

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"imagemate/internal/core/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// DownloadFile returns the byte content and declared media type of a file on a provided URL.
func DownloadFile(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("error creating request %w", err)
		log.Error().Err(err).Str("url", url).Send()
		return nil, "", err
	}

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request %w", err)
		log.Error().Err(err).Str("url", url).Send()
		return nil, "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
		log.Error().Err(err).Str("url", url).Send()
		return nil, "", err
	}

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		err = fmt.Errorf("error reading response %w", err)
		log.Error().Err(err).Str("url", url).Send()
		return nil, "", err
	}

	return buf, res.Header.Get("Content-Type"), nil
}

// LoadSource reads a local path or http(s) URL into a source file. The media type
// is taken from the file extension or response header, falling back to sniffing.
func LoadSource(ctx context.Context, location string) (domain.SourceFile, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		data, contentType, err := DownloadFile(ctx, location)
		if err != nil {
			return domain.SourceFile{}, err
		}

		name := path.Base(strings.SplitN(location, "?", 2)[0])
		if name == "" || name == "/" || name == "." {
			name = "image"
		}

		return domain.SourceFile{Name: name, MIMEType: mediaType(contentType, name, data), Data: data}, nil
	}

	data, err := os.ReadFile(location)
	if err != nil {
		err = fmt.Errorf("error reading source file %w", err)
		log.Error().Err(err).Str("path", location).Send()
		return domain.SourceFile{}, err
	}

	name := filepath.Base(location)
	return domain.SourceFile{Name: name, MIMEType: mediaType("", name, data), Data: data}, nil
}

func mediaType(declared, name string, data []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}

	return DetectMediaType(data)
}

// SaveTempFile saves bytes to dir, named after id, and returns the path. An empty dir means the system temp dir.
func SaveTempFile(dir string, id uuid.UUID, data []byte, extension string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	log.Debug().Int("bytes", len(data)).Str("extension", extension).Msg("creating temp file")

	p := filepath.Join(dir, fmt.Sprintf("%s%s", id.String(), extension))

	f, err := os.Create(p)
	if err != nil {
		err = fmt.Errorf("error creating temp file %w", err)
		log.Error().Err(err).Send()
		return "", err
	}

	defer f.Close()

	if _, err := f.Write(data); err != nil {
		err = fmt.Errorf("error writing temp file %w", err)
		log.Error().Err(err).Send()
		return "", err
	}

	log.Debug().Str("path", f.Name()).Msg("created file")

	return f.Name(), nil
}

// GetTempFile retrieves a temporarily stored file by its path, as returned from SaveTempFile().
func GetTempFile(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("error reading temp file %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	return buf, nil
}

// RemoveTempFile removes a specified temporary file at the given path and logs success or failure.
func RemoveTempFile(path string) error {
	err := os.Remove(path)
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("could not clean up temp file")
		return err
	}
	log.Debug().Str("path", path).Msg("cleaned up temp file")
	return nil
}

// SaveResult copies a result resource into dir under the result's download name.
func SaveResult(store *TempStore, result domain.ConversionResult, dir string) (string, error) {
	data, err := store.Read(result.Resource)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory %w", err)
	}

	out := filepath.Join(dir, result.DownloadName())
	if err := os.WriteFile(out, data, 0o644); err != nil {
		err = fmt.Errorf("error writing result %w", err)
		log.Error().Err(err).Str("path", out).Send()
		return "", err
	}

	log.Info().Str("path", out).Int("bytes", len(data)).Msg("saved converted image")

	return out, nil
}
