package i18n

// Message keys shared by handlers and templates.
const (
	KeyBadRequest         = "error.400"
	KeyAccessDenied       = "error.403"
	KeyNotFound           = "error.404"
	KeyServerError        = "error.500"
	KeyUnknownError       = "error.unknown"
	KeyNotAuthorized      = "auth.not_authorized"
	KeyInvalidCredentials = "auth.invalid_credentials"
	KeyRegistered         = "auth.registered"
	KeyUserExists         = "user.exists"
	KeyPasswordMismatch   = "auth.password_mismatch"
	KeyRegisterTitle      = "auth.register_title"
	KeyLoginTitle         = "auth.login_title"
	KeyTaskListTitle      = "task.list_title"
	KeyTaskCreateTitle    = "task.create_title"
	KeyTaskEditTitle      = "task.edit_title"
	KeyTaskDeleteTitle    = "task.delete_title"
)

// Tags of the custom validators translated by the catalog.
var customTags = []string{"username", "notnumeric", "duedate"}

var messages = map[string]map[string]string{
	"en": {
		KeyBadRequest:         "Bad request.",
		KeyAccessDenied:       "Access denied.",
		KeyNotFound:           "Page not found.",
		KeyServerError:        "Internal server error.",
		KeyUnknownError:       "Unknown error.",
		KeyNotAuthorized:      "You are not authorized.",
		KeyInvalidCredentials: "Please enter a correct username and password.",
		KeyRegistered:         "Your account has been registered, please log in.",
		KeyUserExists:         "A user with that username already exists.",
		KeyPasswordMismatch:   "The two password fields didn't match.",
		KeyRegisterTitle:      "Registration",
		KeyLoginTitle:         "Log in",
		KeyTaskListTitle:      "My tasks",
		KeyTaskCreateTitle:    "Create task",
		KeyTaskEditTitle:      "Edit task",
		KeyTaskDeleteTitle:    "Delete task",

		"validation.username":   "{0} may contain only letters, numbers and @/./+/-/_ characters",
		"validation.notnumeric": "{0} can't be entirely numeric",
		"validation.duedate":    "{0} must be a valid date and time",
	},
	"ru": {
		KeyBadRequest:         "Некорректный запрос.",
		KeyAccessDenied:       "Доступ запрещён.",
		KeyNotFound:           "Страница не найдена.",
		KeyServerError:        "Внутренняя ошибка сервера.",
		KeyUnknownError:       "Неизвестная ошибка.",
		KeyNotAuthorized:      "Вы не авторизованы.",
		KeyInvalidCredentials: "Пожалуйста, введите правильные имя пользователя и пароль.",
		KeyRegistered:         "Ваш аккаунт зарегистрирован, войдите в него.",
		KeyUserExists:         "Пользователь с таким именем уже существует.",
		KeyPasswordMismatch:   "Введённые пароли не совпадают.",
		KeyRegisterTitle:      "Регистрация",
		KeyLoginTitle:         "Вход",
		KeyTaskListTitle:      "Мои задачи",
		KeyTaskCreateTitle:    "Создание задачи",
		KeyTaskEditTitle:      "Редактирование задачи",
		KeyTaskDeleteTitle:    "Удаление задачи",

		"validation.username":   "{0} может содержать только буквы, цифры и символы @/./+/-/_",
		"validation.notnumeric": "{0} не может состоять только из цифр",
		"validation.duedate":    "{0} должен быть корректной датой и временем",
	},
}
