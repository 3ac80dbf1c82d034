// Package local_fs 本地文件系统存储
package local_fs

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/note-registry-service/pkg/fileurl"

	"github.com/pkg/errors"
)

type Config struct {
	SavePath   string `yaml:"save-path" default:"storage/snapshots"`
	CustomPath string `yaml:"custom-path"`
}

type LocalFS struct {
	Config *Config
}

func NewClient(conf *Config) (*LocalFS, error) {
	if conf == nil || conf.SavePath == "" {
		return nil, errors.New("local_fs: save path is empty")
	}
	return &LocalFS{Config: conf}, nil
}

func (p *LocalFS) getSavePath() string {
	return fileurl.PathSuffixCheckAdd(p.Config.SavePath, "/")
}

func (p *LocalFS) dst(fileKey string) string {
	return filepath.FromSlash(p.getSavePath() + fileurl.JoinKey(p.Config.CustomPath, fileKey))
}

// SendFile 保存文件, 返回保存路径
func (p *LocalFS) SendFile(fileKey string, file io.Reader, itype string, modTime time.Time) (string, error) {
	dst := p.dst(fileKey)
	if err := fileurl.CreatePath(dst, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrap(err, "local_fs")
	}
	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		return "", errors.Wrap(err, "local_fs")
	}
	if err := out.Close(); err != nil {
		return "", errors.Wrap(err, "local_fs")
	}

	if !modTime.IsZero() {
		if err := os.Chtimes(dst, modTime, modTime); err != nil {
			return "", errors.Wrap(err, "local_fs")
		}
	}
	return dst, nil
}

func (p *LocalFS) SendContent(fileKey string, content []byte, modTime time.Time) (string, error) {
	return p.SendFile(fileKey, bytes.NewReader(content), "", modTime)
}

func (p *LocalFS) Delete(fileKey string) error {
	dst := p.dst(fileKey)
	if fileurl.IsExist(dst) {
		return os.Remove(dst)
	}
	return nil
}
