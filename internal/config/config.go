package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	Env              string
	LogLevel         string
	ClientsDir       string
	KnowledgeDir     string
	ConversationsDir string

	// LLM provider settings
	LLMProvider string
	LLMModel    string
	OpenAIKey   string
	GroqKey     string
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  .env file not found, using system environment variables")
	}

	return Config{
		Port:             os.Getenv("PORT"),
		Env:              os.Getenv("ENV"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		ClientsDir:       getEnv("CLIENTS_DIR", "clients"),
		KnowledgeDir:     getEnv("KNOWLEDGE_DIR", "knowledge_bases"),
		ConversationsDir: getEnv("CONVERSATIONS_DIR", "conversations"),
		LLMProvider:      getEnv("LLM_PROVIDER", "groq"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		GroqKey:          os.Getenv("GROQ_API_KEY"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
