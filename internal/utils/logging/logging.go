package logging

import "github.com/sirupsen/logrus"

var (
	logger *logrus.Entry
)

type Fields = logrus.Fields

func SetLevel(l logrus.Level) {
	logger.Logger.SetLevel(l)
}

func init() {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
}

func WithError(e error) *logrus.Entry {
	return logger.WithError(e)
}

func Entry() *logrus.Entry {
	return logger
}

func Error(args ...interface{}) {
	logger.Error(args...)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return logger.WithField(key, value)
}

func WithFields(f Fields) *logrus.Entry {
	return logger.WithFields(f)
}

// SetFormatter switches between text and json output
func SetFormatter(json bool) {
	if json {
		logger.Logger.SetFormatter(&logrus.JSONFormatter{})
		return
	}

	logger.Logger.SetFormatter(&logrus.TextFormatter{})
}

// Named returns an entry tagged with the component name
func Named(component string) *logrus.Entry {
	return logger.WithField("component", component)
}
