package aws_s3

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/haierkeys/note-registry-service/pkg/fileurl"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	tmtypes "github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func metadata(modTime time.Time) map[string]string {
	if modTime.IsZero() {
		return nil
	}
	return map[string]string{"modification-time": modTime.Format(time.RFC3339)}
}

// SendFile 上传文件, 返回 bucket/key
func (p *S3) SendFile(fileKey string, file io.Reader, itype string, modTime time.Time) (string, error) {
	ctx := context.Background()
	fileKey = fileurl.JoinKey(p.Config.CustomPath, fileKey)

	input := &transfermanager.UploadObjectInput{
		Bucket:   aws.String(p.Config.BucketName),
		Key:      aws.String(fileKey),
		Body:     file,
		Metadata: metadata(modTime),
	}
	if itype != "" {
		input.ContentType = aws.String(itype)
	}

	if _, err := p.TransferManager.UploadObject(ctx, input); err != nil {
		return "", errors.Wrap(err, "aws_s3")
	}
	return fileurl.PathSuffixCheckAdd(p.Config.BucketName, "/") + fileKey, nil
}

func (p *S3) SendContent(fileKey string, content []byte, modTime time.Time) (string, error) {
	ctx := context.Background()
	bucket := p.Config.BucketName
	fileKey = fileurl.JoinKey(p.Config.CustomPath, fileKey)

	input := &transfermanager.UploadObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(fileKey),
		Body:              bytes.NewReader(content),
		ContentType:       aws.String("application/json"),
		ChecksumAlgorithm: tmtypes.ChecksumAlgorithmSha256,
		Metadata:          metadata(modTime),
	}

	if _, err := p.TransferManager.UploadObject(ctx, input); err != nil {
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noBucket) {
			p.logger.Warn("bucket does not exist", zap.String("bucket", bucket))
			return "", errors.Wrap(noBucket, "aws_s3")
		}
		return "", errors.Wrap(err, "aws_s3")
	}

	err := s3.NewObjectExistsWaiter(p.S3Client).Wait(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileKey),
	}, time.Minute)
	if err != nil {
		p.logger.Warn("wait for object failed",
			zap.String("bucket", bucket),
			zap.String("key", fileKey),
			zap.Error(err))
	}

	return fileurl.PathSuffixCheckAdd(bucket, "/") + fileKey, nil
}

func (p *S3) Delete(fileKey string) error {
	fileKey = fileurl.JoinKey(p.Config.CustomPath, fileKey)

	_, err := p.S3Client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(p.Config.BucketName),
		Key:    aws.String(fileKey),
	})
	return errors.Wrap(err, "aws_s3")
}
