package unit_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"codecompanion/internal/models"
	"codecompanion/internal/services"
)

func TestCheckChatSettings(t *testing.T) {
	err := services.CheckChatSettings(nil, "OpenAI")
	assert.EqualError(t, err, "Please add your OpenAI api key!")

	err = services.CheckChatSettings(&models.Settings{APIKey: "k"}, "OpenAI")
	assert.EqualError(t, err, "Please add temperature!")

	var cfgErr *services.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	assert.NoError(t, services.CheckChatSettings(&models.Settings{APIKey: "k", Temperature: 0.2}, "OpenAI"))
}

func TestCheckImageSettings(t *testing.T) {
	assert.EqualError(t, services.CheckImageSettings(&models.Settings{}, "OpenAI"), "Please add your OpenAI api key!")
	assert.EqualError(t, services.CheckImageSettings(&models.Settings{APIKey: "k"}, "OpenAI"), "Please add image size!")
	assert.EqualError(t, services.CheckImageSettings(&models.Settings{APIKey: "k", ImageSize: "1024x1024"}, "OpenAI"), "Please add response number!")
	assert.NoError(t, services.CheckImageSettings(&models.Settings{APIKey: "k", ImageSize: "1024x1024", ResponseNumber: 2}, "OpenAI"))
}
