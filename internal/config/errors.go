package config

import (
	"errors"
)

var (
	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownGormEngine error if db.gormEngine is not one of mysql, postgres or sqlite.
	ErrUnknownGormEngine = errors.New("toml config db.gormEngine is not supported")

	// ErrUnknownStorageDriver error if storage.driver is not one of file, oss or cloudinary.
	ErrUnknownStorageDriver = errors.New("toml config storage.driver is not supported")

	// ErrEmptyStorageRoot error if the file storage driver has no root directory.
	ErrEmptyStorageRoot = errors.New("toml config storage.file.root can not be empty")

	// ErrEmptyOSSBucket error if the oss storage driver has no bucket.
	ErrEmptyOSSBucket = errors.New("toml config storage.oss.bucket can not be empty")
)
