package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	TLS_DOMAINS        = ""                   // e.g. "example.com,example2.com"
	BIND_ADDRESS       = "0.0.0.0:5000"       // Same port the web front-end expects by default
	MYSQL_DSN          = ""                   // MySQL will be used if this is set
	SQLITE_FILE        = "faces.db"           // SQLite will be used if MYSQL_DSN is not configured
	DEFAULT_BUCKET_DIR = "dataset"            // Used for creating the initial bucket, samples go to <dir>/user
	TMP_DIR            = "/tmp"               // Local copies of S3 objects
	DEBUG_MODE         = true                 // Logs error responses
	ADMIN_TOKEN        = ""                   // Empty disables the admin gate
	SESSION_KEY        = "this is a long key" // Admin session cookie signing key

	RECOGNIZER           = "lbph" // "lbph" (OpenCV cascade + LBPH) or "dlib" (go-face)
	CASCADE_FILE         = "haarcascade_frontalface_default.xml"
	MODEL_PATH           = "face_recognizer.yml"
	DLIB_MODELS_DIR      = "models"
	DLIB_SAMPLES_FILE    = "faces.json"
	DLIB_TOLERANCE       = 0.4
	DETECT_SCALE_FACTOR  = 1.3
	DETECT_MIN_NEIGHBORS = 5
	CONFIDENCE_THRESHOLD = 100.0 // LBPH distance, lower is a closer match
	MAX_IMAGE_DIMENSION  = 1280  // Bigger probes are scaled down before detection, 0 disables
	MAX_PAYLOAD_BYTES    = 10 << 20
	TRAIN_ON_ENROLL      = true
	NAME_OVERRIDES       = "" // e.g. "1=Robin,2=Sifat"

	CAMERA_DEVICE      = 0
	CAMERA_WIDTH       = 640
	CAMERA_HEIGHT      = 480
	CAMERA_SAMPLES     = 40
	CAMERA_TIMEOUT     = 30  // seconds
	CAMERA_FRAME_DELAY = 100 // milliseconds between enrollment frames

	AUTO_TRAIN_INTERVAL = 0 // seconds, 0 disables background reindex/retrain
)

// Load reads all settings from the environment. Unset or malformed values keep their defaults.
func Load() {
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("MYSQL_DSN", &MYSQL_DSN)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("DEFAULT_BUCKET_DIR", &DEFAULT_BUCKET_DIR)
	readEnvString("TMP_DIR", &TMP_DIR)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("ADMIN_TOKEN", &ADMIN_TOKEN)
	readEnvString("SESSION_KEY", &SESSION_KEY)

	readEnvString("RECOGNIZER", &RECOGNIZER)
	readEnvString("CASCADE_FILE", &CASCADE_FILE)
	readEnvString("MODEL_PATH", &MODEL_PATH)
	readEnvString("DLIB_MODELS_DIR", &DLIB_MODELS_DIR)
	readEnvString("DLIB_SAMPLES_FILE", &DLIB_SAMPLES_FILE)
	readEnvFloat("DLIB_TOLERANCE", &DLIB_TOLERANCE)
	readEnvFloat("DETECT_SCALE_FACTOR", &DETECT_SCALE_FACTOR)
	readEnvInt("DETECT_MIN_NEIGHBORS", &DETECT_MIN_NEIGHBORS)
	readEnvFloat("CONFIDENCE_THRESHOLD", &CONFIDENCE_THRESHOLD)
	readEnvInt("MAX_IMAGE_DIMENSION", &MAX_IMAGE_DIMENSION)
	readEnvInt("MAX_PAYLOAD_BYTES", &MAX_PAYLOAD_BYTES)
	readEnvBool("TRAIN_ON_ENROLL", &TRAIN_ON_ENROLL)
	readEnvString("NAME_OVERRIDES", &NAME_OVERRIDES)

	readEnvInt("CAMERA_DEVICE", &CAMERA_DEVICE)
	readEnvInt("CAMERA_WIDTH", &CAMERA_WIDTH)
	readEnvInt("CAMERA_HEIGHT", &CAMERA_HEIGHT)
	readEnvInt("CAMERA_SAMPLES", &CAMERA_SAMPLES)
	readEnvInt("CAMERA_TIMEOUT", &CAMERA_TIMEOUT)
	readEnvInt("CAMERA_FRAME_DELAY", &CAMERA_FRAME_DELAY)

	readEnvInt("AUTO_TRAIN_INTERVAL", &AUTO_TRAIN_INTERVAL)
}

func CameraTimeout() time.Duration {
	return time.Duration(CAMERA_TIMEOUT) * time.Second
}

func CameraFrameDelay() time.Duration {
	return time.Duration(CAMERA_FRAME_DELAY) * time.Millisecond
}

func AutoTrainInterval() time.Duration {
	return time.Duration(AUTO_TRAIN_INTERVAL) * time.Second
}

// ParseNameOverrides turns "1=Robin, 2=Sifat" into a label to name map. Malformed pairs are ignored.
func ParseNameOverrides(in string) map[int]string {
	result := map[int]string{}
	for _, pair := range strings.Split(in, ",") {
		label, name, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(label))
		name = strings.TrimSpace(name)
		if err != nil || name == "" {
			continue
		}
		result[id] = name
	}
	return result
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvFloat(name string, value *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return
	}
	*value = f
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	f, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = f
}
