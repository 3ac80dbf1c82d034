package aliyun_oss

import (
	"bytes"
	"io"
	"time"

	"github.com/haierkeys/note-registry-service/pkg/fileurl"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"
)

func (p *OSS) GetBucket(bucketName string) error {
	if len(bucketName) <= 0 {
		bucketName = p.Config.BucketName
	}
	var err error
	p.Bucket, err = p.Client.Bucket(bucketName)
	return err
}

func (p *OSS) SendFile(fileKey string, file io.Reader, itype string, modTime time.Time) (string, error) {
	if p.Bucket == nil {
		if err := p.GetBucket(""); err != nil {
			return "", errors.Wrap(err, "aliyun_oss")
		}
	}
	fileKey = fileurl.JoinKey(p.Config.CustomPath, fileKey)

	var options []oss.Option
	if itype != "" {
		options = append(options, oss.ContentType(itype))
	}
	if !modTime.IsZero() {
		options = append(options, oss.Meta("modification-time", modTime.Format(time.RFC3339)))
	}

	if err := p.Bucket.PutObject(fileKey, file, options...); err != nil {
		return "", errors.Wrap(err, "aliyun_oss")
	}
	return fileKey, nil
}

func (p *OSS) SendContent(fileKey string, content []byte, modTime time.Time) (string, error) {
	return p.SendFile(fileKey, bytes.NewReader(content), "application/json", modTime)
}

func (p *OSS) Delete(fileKey string) error {
	if p.Bucket == nil {
		if err := p.GetBucket(""); err != nil {
			return errors.Wrap(err, "aliyun_oss")
		}
	}
	fileKey = fileurl.JoinKey(p.Config.CustomPath, fileKey)
	return errors.Wrap(p.Bucket.DeleteObject(fileKey), "aliyun_oss")
}
