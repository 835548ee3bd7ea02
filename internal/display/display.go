// Package display renders domain values as user-facing text in Russian or
// English.
package display

import (
	"fmt"
	"strings"
	"time"

	"reflex/internal/domain"
)

// PreviewCount is how many recent thoughts the capture screen shows.
const PreviewCount = 5

type Locale string

const (
	LocaleRU Locale = "ru"
	LocaleEN Locale = "en"
)

// ParseLocale maps "en", "en-US" and similar to English; everything else is
// Russian.
func ParseLocale(value string) Locale {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(value)), "en") {
		return LocaleEN
	}
	return LocaleRU
}

var shortMonthsRU = [...]string{"янв.", "февр.", "мар.", "апр.", "мая", "июн.", "июл.", "авг.", "сент.", "окт.", "нояб.", "дек."}

// RecencyLabel describes how long ago t was relative to now. Anything a week
// or older gets a short day-month date in now's location.
func RecencyLabel(t, now time.Time, locale Locale) string {
	diff := now.Sub(t)
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 1:
		return pick(locale, "только что", "just now")
	case minutes < 60:
		return pick(locale, fmt.Sprintf("%d мин назад", minutes), fmt.Sprintf("%d min ago", minutes))
	case hours < 24:
		return pick(locale, fmt.Sprintf("%d ч назад", hours), fmt.Sprintf("%d h ago", hours))
	case days < 7:
		return pick(locale, fmt.Sprintf("%d дн назад", days), fmt.Sprintf("%d d ago", days))
	}

	local := t.In(now.Location())
	if locale == LocaleEN {
		return local.Format("Jan 2")
	}
	return fmt.Sprintf("%d %s", local.Day(), shortMonthsRU[local.Month()-1])
}

func MoodEmoji(m domain.Mood) string {
	switch m {
	case domain.MoodGood:
		return "😊"
	case domain.MoodNeutral:
		return "😐"
	case domain.MoodBad:
		return "😔"
	case domain.MoodConfused:
		return "🤔"
	default:
		return ""
	}
}

func MoodLabel(m domain.Mood, locale Locale) string {
	switch m {
	case domain.MoodGood:
		return pick(locale, "Хорошо", "Good")
	case domain.MoodNeutral:
		return pick(locale, "Нейтрально", "Neutral")
	case domain.MoodBad:
		return pick(locale, "Плохо", "Bad")
	case domain.MoodConfused:
		return pick(locale, "Запутанно", "Confused")
	default:
		return ""
	}
}

// ErrorMessage is the notice text for an error kind.
func ErrorMessage(kind domain.ErrorKind, locale Locale) string {
	switch kind {
	case domain.ErrorKindPermissionDenied:
		return pick(locale, "Доступ к микрофону запрещен. Разрешите доступ в настройках системы.", "Microphone access denied. Allow access in system settings.")
	case domain.ErrorKindDeviceNotFound:
		return pick(locale, "Микрофон не найден. Подключите микрофон и попробуйте снова.", "No microphone found. Connect one and try again.")
	case domain.ErrorKindDeviceBusy:
		return pick(locale, "Микрофон используется другим приложением.", "The microphone is in use by another application.")
	case domain.ErrorKindUnsupportedEnvironment:
		return pick(locale, "Запись аудио недоступна в этом окружении.", "Audio recording is not available in this environment.")
	case domain.ErrorKindDeviceFailed:
		return pick(locale, "Не удалось начать запись. Проверьте микрофон.", "Could not start recording. Check the microphone.")
	case domain.ErrorKindTranscriptionFailed:
		return pick(locale, "Ошибка распознавания речи", "Speech recognition failed")
	case domain.ErrorKindStoreReadFailed:
		return pick(locale, "Не удалось загрузить мысли", "Could not load thoughts")
	case domain.ErrorKindStoreWriteFailed:
		return pick(locale, "Не удалось сохранить мысль", "Could not save the thought")
	case domain.ErrorKindStoreDeleteFailed:
		return pick(locale, "Не удалось удалить мысль", "Could not delete the thought")
	case domain.ErrorKindStartup:
		return pick(locale, "Приложение не запустилось", "The application failed to start")
	default:
		return pick(locale, "Что-то пошло не так", "Something went wrong")
	}
}

// StateHint is the line shown under the record button.
func StateHint(state domain.CaptureState, locale Locale) string {
	switch state {
	case domain.CaptureStateRecording:
		return pick(locale, "Идет запись...", "Recording...")
	case domain.CaptureStateProcessing:
		return pick(locale, "Обработка...", "Processing...")
	case domain.CaptureStateDraftReady:
		return pick(locale, "Проверьте текст и сохраните мысль", "Review the text and save the thought")
	case domain.CaptureStateSaving:
		return pick(locale, "Сохранение...", "Saving...")
	default:
		return pick(locale, "Нажмите, чтобы записать мысль", "Tap to record a thought")
	}
}

func pick(locale Locale, ru, en string) string {
	if locale == LocaleEN {
		return en
	}
	return ru
}
