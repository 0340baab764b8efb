package dispatch

// User-visible reply texts. Nothing else is ever shown to the user.
const (
	ReplyGreeting         = "Привет! Отправь мне скриншот, и я создам для него описание."
	ReplyProcessing       = "Фото получил. Генерирую описание, это может занять до минуты..."
	ReplyDonePrefix       = "Готово!\n\n"
	ReplyDescribeFailed   = "К сожалению, произошла ошибка при генерации описания. Попробуйте позже."
	ReplyProcessingFailed = "Произошла ошибка при обработке вашего фото."
	ReplySendPhoto        = "Пожалуйста, отправь мне фото (скриншот)."
)

const commandStart = "start"
