package config

import (
	"github.com/catalog-admin/catalog-admin/internal/logger"
)

// Supported blob storage drivers.
const (
	StorageFile       = "file"
	StorageOSS        = "oss"
	StorageCloudinary = "cloudinary"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	JWT       JWT
	Storage   Storage
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover    bool   // disable recover middleware
	Port              int    // listening port for the webserver
	ShutDownTime      int    // wait time for shutdown
	MaxUploadSize     int    // body limit in bytes, multipart uploads included
	AllowOrigins      string // CORS allowed origins, empty disables the cors middleware
	AllowTenantHeader bool   // accept X-Tenant-Schema to pick the tenant schema per request
}

// JWT holds the token settings. TTLs are in minutes.
type JWT struct {
	Secret     string // signing key, generated and persisted on first start when empty
	Issuer     string
	AccessTTL  int
	RefreshTTL int
}

// Storage selects and configures the blob storage driver.
type Storage struct {
	Driver     string
	File       FileStorage
	OSS        OSSStorage
	Cloudinary CloudinaryStorage
}

// FileStorage stores blobs below a local directory.
type FileStorage struct {
	Root      string // directory holding product_images/, teacher_photos/
	URLPrefix string // path the blobs are served under, e.g. /media
}

// OSSStorage stores blobs in an Aliyun OSS bucket.
type OSSStorage struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// CloudinaryStorage stores blobs in Cloudinary. URL falls back to CLOUDINARY_URL.
type CloudinaryStorage struct {
	URL    string
	Folder string // folder prepended to every public id
}

// Seed controls the initial data created on an empty database.
type Seed struct {
	AdminUsername string
	AdminPassword string
	AdminEmail    string
	// DefaultRole is assigned to self registered users. Empty leaves them without a role.
	DefaultRole string
}
