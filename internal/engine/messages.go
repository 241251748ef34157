package engine

import "github.com/rmuhamedgaliev/arcana/internal/story"

// The language prompt itself cannot be localized yet, so it carries
// both languages at once.
const promptSelectLanguage = "Select language / Выберите язык:"

// uiText is a fixed engine message in every supported language.
type uiText struct {
	en, ru string
}

func (u uiText) get(lang story.Language) string {
	if lang == story.LangRU {
		return u.ru
	}
	return u.en
}

var (
	msgLanguageFallback = uiText{
		en: "Error selecting language. Using English as default.",
		ru: "Ошибка выбора языка. Используется английский.",
	}
	promptSelectGame = uiText{
		en: "Select a game:",
		ru: "Выберите игру:",
	}
	msgNoGames = uiText{
		en: "No games available.",
		ru: "Нет доступных игр.",
	}
	msgGameOver = uiText{
		en: "Game over.",
		ru: "Игра окончена.",
	}
	msgNoOptions = uiText{
		en: "No valid options available. Game over.",
		ru: "Нет доступных вариантов. Игра окончена.",
	}
	msgHealthDepleted = uiText{
		en: "Your health has dropped to 0 or below. Game over.",
		ru: "Ваше здоровье упало до 0 или ниже. Игра окончена.",
	}
	msgBrokenStory = uiText{
		en: "The story cannot continue from here. Game over.",
		ru: "История не может продолжиться. Игра окончена.",
	}
	msgInterrupted = uiText{
		en: "Game interrupted due to an error or timeout.",
		ru: "Игра прервана из-за ошибки или тайм-аута.",
	}
	msgStopped = uiText{
		en: "Game stopped. Your progress has been saved.",
		ru: "Игра остановлена. Ваш прогресс сохранён.",
	}
)
