package webdav

import (
	"io"
	"os"
	"path"
	"time"

	"github.com/haierkeys/note-registry-service/pkg/fileurl"

	"github.com/pkg/errors"
)

// SendFile 以流方式上传到 WebDAV 服务器
func (w *WebDAV) SendFile(fileKey string, file io.Reader, itype string, modTime time.Time) (string, error) {
	fileKey = fileurl.JoinKey(w.Config.CustomPath, fileKey)

	if dir := path.Dir(fileKey); dir != "." && dir != "/" {
		if err := w.Client.MkdirAll(dir, 0755); err != nil {
			return "", errors.Wrap(err, "webdav")
		}
	}

	if err := w.Client.WriteStream(fileKey, file, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "webdav")
	}
	return fileKey, nil
}

// SendContent WebDAV 不支持设置修改时间, modTime 忽略
func (w *WebDAV) SendContent(fileKey string, content []byte, modTime time.Time) (string, error) {
	fileKey = fileurl.JoinKey(w.Config.CustomPath, fileKey)

	if dir := path.Dir(fileKey); dir != "." && dir != "/" {
		if err := w.Client.MkdirAll(dir, 0755); err != nil {
			return "", errors.Wrap(err, "webdav")
		}
	}

	if err := w.Client.Write(fileKey, content, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "webdav")
	}
	return fileKey, nil
}

func (w *WebDAV) Delete(fileKey string) error {
	fileKey = fileurl.JoinKey(w.Config.CustomPath, fileKey)
	return errors.Wrap(w.Client.Remove(fileKey), "webdav")
}
